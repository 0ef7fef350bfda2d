package notify

import (
	"encoding/json"
	"time"
)

// SnapshotPushedMessage announces that a device overwrote the remote
// document. It carries counts only, never record contents.
type SnapshotPushedMessage struct {
	Origin       string    `json:"origin"`
	FileName     string    `json:"fileName"`
	FileID       string    `json:"fileId"`
	Seq          uint64    `json:"seq"`
	Transactions int       `json:"transactions"`
	Categories   int       `json:"categories"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewSnapshotPushedMessage stamps the message with the current time.
func NewSnapshotPushedMessage(origin, fileName, fileID string, seq uint64, txs, cats int) *SnapshotPushedMessage {
	return &SnapshotPushedMessage{
		Origin:       origin,
		FileName:     fileName,
		FileID:       fileID,
		Seq:          seq,
		Transactions: txs,
		Categories:   cats,
		Timestamp:    time.Now(),
	}
}

func (m *SnapshotPushedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SnapshotPushedMessageFromJSON(data []byte) (*SnapshotPushedMessage, error) {
	var msg SnapshotPushedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

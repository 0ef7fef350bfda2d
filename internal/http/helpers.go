package http

import (
	"strings"
	"time"

	"saldo/internal/core"
)

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// syncStatus is the public view of the sync configuration. The credential
// itself is never sent back.
type syncStatus struct {
	Connected     bool       `json:"isConnected"`
	FileName      string     `json:"fileName"`
	FileID        string     `json:"fileId,omitempty"`
	LastSync      *time.Time `json:"lastSync,omitempty"`
	HasCredential bool       `json:"hasCredential"`
}

func newSyncStatus(c core.SyncConfig) syncStatus {
	return syncStatus{
		Connected:     c.Connected,
		FileName:      c.FileName,
		FileID:        c.FileID,
		LastSync:      c.LastSync,
		HasCredential: c.Credential != "",
	}
}

package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldTxID        = "transaction_id"
	FieldCategory    = "category"
	FieldKind        = "kind"
	FieldAmountCents = "amount_cents"
	FieldFileName    = "file_name"
	FieldFileID      = "file_id"
	FieldSeq         = "seq"
	FieldCount       = "count"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentLedger  = "ledger"
	ComponentStore   = "store"
	ComponentStorage = "storage"
	ComponentSync    = "sync"
	ComponentRemote  = "remote"
	ComponentNotify  = "notify"
	ComponentParser  = "parser"
	ComponentCache   = "cache"
)

// Operations defines standard operation names
const (
	OpAdd      = "add"
	OpRemove   = "remove"
	OpPush     = "push"
	OpPull     = "pull"
	OpConnect  = "connect"
	OpSeed     = "seed"
	OpLoad     = "load"
	OpPublish  = "publish"
	OpParse    = "parse"
	OpShutdown = "shutdown"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithTransaction adds transaction fields. Description is left out on purpose
// since it is free text typed by the user.
func (f LogFields) WithTransaction(id, kind, category string, amountCents int64) LogFields {
	f[FieldTxID] = id
	f[FieldKind] = kind
	f[FieldCategory] = category
	f[FieldAmountCents] = amountCents
	return f
}

// WithRemoteFile adds remote document fields
func (f LogFields) WithRemoteFile(name, id string) LogFields {
	f[FieldFileName] = name
	if id != "" {
		f[FieldFileID] = id
	}
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}

package core

// Draft is a partial record produced by an untrusted source such as the
// natural-language parser. Every field is optional and unvalidated.
type Draft struct {
	Amount      *float64 `json:"amount,omitempty"`
	Kind        *string  `json:"type,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Description *string  `json:"description,omitempty"`
	Date        *string  `json:"date,omitempty"`
}

// IsEmpty reports whether the draft carries no field at all.
func (d Draft) IsEmpty() bool {
	return d.Amount == nil && d.Kind == nil && d.Category == nil && d.Description == nil && d.Date == nil
}

package model

import "time"

// Column bounds of the global configuration table.
const (
	MaxCategoryLen  = 50
	MaxAttributeLen = 50
	MaxValueLen     = 50
	MaxCommentLen   = 100
)

// Attribute is one row of the global configuration table. Value always holds
// the canonical string produced by the convert package for the native value
// last assigned; Convert records whether reads should restore that type.
type Attribute struct {
	ID        string    `json:"id"`
	Category  string    `json:"category"`
	Name      string    `json:"attribute"`
	Value     string    `json:"value"`
	Convert   bool      `json:"convert"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

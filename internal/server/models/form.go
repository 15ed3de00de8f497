package models

import (
	"encoding/json"
	"time"
)

const (
	FieldFormName = "formName"
	FieldFormData = "formData"
)

// Form is a captured form submission. FormData is kept as raw JSON and is
// never addressed by path expressions.
type Form struct {
	ID        string          `json:"id"`
	FormName  string          `json:"formName"`
	FormData  json.RawMessage `json:"formData"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

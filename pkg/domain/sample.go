package domain

import (
	"time"

	"github.com/aretw0/elementx/pkg/chem"
)

// Sample is a calculation the user chose to keep.
type Sample struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Name      string      `json:"name"`
	Result    chem.Result `json:"result"`
	CreatedAt time.Time   `json:"created_at"`
}

// DisplayName falls back to the formula when the sample was saved unnamed.
func (s Sample) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Result.Formula
}

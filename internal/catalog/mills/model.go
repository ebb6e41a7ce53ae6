// Package mills manages the mills goods are sourced from.
package mills

import "time"

const CacheNamespace = "mills"

// Mill is a supplier of fabric.
type Mill struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Contact   string    `json:"contact"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateMillRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Contact string `json:"contact" validate:"required,max=200"`
	Phone   string `json:"phone" validate:"required,max=50"`
	Address string `json:"address" validate:"required,max=500"`
}

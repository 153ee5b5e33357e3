package dto

import "github.com/hongminglow/finance-api/internal/models"

// CreateMovementRequest is the POST /movements body.
type CreateMovementRequest struct {
	Amount  models.Amount `json:"amount"`
	Concept string        `json:"concept"`
	Date    string        `json:"date"`
	Type    string        `json:"type"`
	UserID  string        `json:"userId"`
}

// UpdateMovementRequest is the PUT /movements/{id} body. Nil fields are left unchanged.
type UpdateMovementRequest struct {
	Amount  *models.Amount `json:"amount"`
	Concept *string        `json:"concept"`
	Date    *string        `json:"date"`
	Type    *string        `json:"type"`
}

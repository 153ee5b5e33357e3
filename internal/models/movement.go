package models

import "time"

// MovementType distinguishes income from expense entries.
type MovementType string

const (
	Income  MovementType = "INCOME"
	Expense MovementType = "EXPENSE"
)

// Valid reports whether t is INCOME or EXPENSE.
func (t MovementType) Valid() bool {
	return t == Income || t == Expense
}

// Movement is a single ledger entry owned by a user.
type Movement struct {
	ID      int64        `json:"id"`
	Amount  Amount       `json:"amount"`
	Concept string       `json:"concept"`
	Date    time.Time    `json:"date"`
	Type    MovementType `json:"type"`
	UserID  string       `json:"userId"`
	User    *UserRef     `json:"user,omitempty"`
}

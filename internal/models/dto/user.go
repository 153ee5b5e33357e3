package dto

// CreateUserRequest is the POST /users body.
type CreateUserRequest struct {
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Phone *string `json:"phone"`
	Role  *string `json:"role"`
}

// UpdateUserRequest is the PUT /users/{id} body. Nil fields are left unchanged.
type UpdateUserRequest struct {
	Name  *string `json:"name"`
	Role  *string `json:"role"`
	Phone *string `json:"phone"`
}

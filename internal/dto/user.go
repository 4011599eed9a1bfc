package dto

import "github.com/venuedesk/venuedesk-api/internal/models"

// CreateUserRequest captures POST /users payload.
type CreateUserRequest struct {
	Email    string          `json:"email" validate:"required,email"`
	Password string          `json:"password" validate:"required,min=6"`
	FullName string          `json:"fullName" validate:"required,min=2,max=200"`
	Role     models.UserRole `json:"role" validate:"required,oneof=SUPERADMIN ADMIN MANAGER STAFF"`
}

// UpdateUserRequest captures PUT /users/:id payload.
type UpdateUserRequest struct {
	FullName string          `json:"fullName" validate:"required,min=2,max=200"`
	Role     models.UserRole `json:"role" validate:"required,oneof=SUPERADMIN ADMIN MANAGER STAFF"`
	Active   *bool           `json:"active,omitempty"`
}

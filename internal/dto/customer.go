package dto

// CreateCustomerRequest captures POST /customers payload.
type CreateCustomerRequest struct {
	FullName string  `json:"fullName" validate:"required,min=2,max=200"`
	Email    string  `json:"email" validate:"required,email"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,min=6,max=30"`
	Company  *string `json:"company,omitempty" validate:"omitempty,max=200"`
	Notes    *string `json:"notes,omitempty"`
}

// UpdateCustomerRequest captures PUT /customers/:id payload.
type UpdateCustomerRequest struct {
	FullName string  `json:"fullName" validate:"required,min=2,max=200"`
	Email    string  `json:"email" validate:"required,email"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,min=6,max=30"`
	Company  *string `json:"company,omitempty" validate:"omitempty,max=200"`
	Notes    *string `json:"notes,omitempty"`
	Active   *bool   `json:"active,omitempty"`
}

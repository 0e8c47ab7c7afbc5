package accounts

import "time"

// Roles stored in users.role.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

// Account represents an admin user credential record.
type Account struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	LastLoginAt time.Time `json:"last_login_at,omitzero"`
}

// CreateAccountRequest is the input for creating an account.
type CreateAccountRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

package model

import (
	"strings"
	"time"
)

// User is a login identity. Admin users own exactly one Administrator record.
type User struct {
	ID           int        `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FullName     string     `json:"full_name"`
	Phone        string     `json:"phone"`
	Role         Role       `json:"role"`
	IsActive     bool       `json:"is_active"`
	LastLogin    *time.Time `json:"last_login"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserInput is the normalized create/update payload for a User, decoded from JSON or form data.
type UserInput struct {
	Username   string `json:"username" form:"username" validate:"required,username"`
	Email      string `json:"email" form:"email" validate:"required,email_shape,max=120"`
	Password   string `json:"password" form:"password" validate:"omitempty,min=6,max=128"`
	FullName   string `json:"full_name" form:"full_name" validate:"required,max=100"`
	Phone      string `json:"phone" form:"phone" validate:"omitempty,phone_digits,max=20"`
	Role       Role   `json:"role" form:"role" validate:"omitempty,oneof=admin student"`
	IsActive   *bool  `json:"is_active" form:"is_active"`
	AdminCode  string `json:"admin_code" form:"admin_code" validate:"omitempty,max=50"`
	Department string `json:"department" form:"department" validate:"omitempty,max=100"`
}

// Normalize trims free-text fields and applies the default role.
func (in *UserInput) Normalize() {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.AdminCode = strings.TrimSpace(in.AdminCode)
	in.Department = strings.TrimSpace(in.Department)
	if in.Role == "" {
		in.Role = RoleStudent
	}
}

// RegisterRequest is the public self-registration payload.
type RegisterRequest struct {
	UserInput
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

// LoginRequest is the payload for user authentication. Login accepts a username or an email.
type LoginRequest struct {
	Login    string `json:"login" form:"login" binding:"required,max=120"`
	Password string `json:"password" form:"password" binding:"required,max=128"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

// ChangePasswordRequest is the payload for changing the caller's own password.
type ChangePasswordRequest struct {
	OldPassword     string `json:"old_password" form:"old_password" binding:"required"`
	NewPassword     string `json:"new_password" form:"new_password" binding:"required,min=6,max=128"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" binding:"required,eqfield=NewPassword"`
}

// UserFilter narrows user listings.
type UserFilter struct {
	Search string
	Role   Role
}

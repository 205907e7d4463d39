package model

import "time"

// Administrator extends an admin User. It is created and deleted together with its User.
type Administrator struct {
	ID         int       `json:"id"`
	UserID     int       `json:"user_id"`
	AdminCode  string    `json:"admin_code"`
	Department string    `json:"department"`
	AssignedAt time.Time `json:"assigned_at"`
}

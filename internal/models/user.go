package models

import "time"

// UserRole represents the roles understood by the RBAC middleware.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleTeacher UserRole = "TEACHER"
)

// User is a staff account able to use the dashboard.
type User struct {
	ID           string     `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         UserRole   `db:"role" json:"role"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	LastLogout   *time.Time `db:"last_logout" json:"last_logout,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}

// NewPagination derives TotalPages from the count and page size.
func NewPagination(page, pageSize, total int) *Pagination {
	p := &Pagination{Page: page, PageSize: pageSize, TotalCount: total}
	if pageSize > 0 {
		p.TotalPages = total / pageSize
		if total%pageSize != 0 {
			p.TotalPages++
		}
	}
	return p
}

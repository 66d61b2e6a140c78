package domain

import "time"

// Role groups permissions granted to users.
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (r Role) EntityID() int64     { return r.ID }
func (r Role) DisplayName() string { return r.Name }
func (r Role) Times() (created, updated time.Time) { return r.CreatedAt, r.UpdatedAt }

// NewRole returns the empty role used for blank forms.
func NewRole() Role {
	return Role{ID: UnsavedID}
}

// User is an account of the admin console. Password is only ever sent, the
// server never returns it.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"password,omitempty"`
	RoleID    int64     `json:"roleId"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u User) EntityID() int64     { return u.ID }
func (u User) DisplayName() string { return u.Name }
func (u User) Times() (created, updated time.Time) { return u.CreatedAt, u.UpdatedAt }

// NewUser returns the empty user used for blank forms.
func NewUser() User {
	return User{ID: UnsavedID, RoleID: UnsavedID, IsActive: true}
}

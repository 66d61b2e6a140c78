package domain

import "time"

// Company operates routes.
type Company struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	FullName    string    `json:"fullname"`
	Logo        string    `json:"logo"`
	Rating      float64   `json:"rating"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// LogoFile is a local path uploaded alongside create/update. Never sent as JSON.
	LogoFile string `json:"-"`
}

func (c Company) EntityID() int64     { return c.ID }
func (c Company) DisplayName() string { return c.Name }
func (c Company) Times() (created, updated time.Time) { return c.CreatedAt, c.UpdatedAt }

// NewCompany returns the empty company used for blank forms.
func NewCompany() Company {
	return Company{ID: UnsavedID, Rating: -1}
}

package domain

import "time"

// Province is a top-level administrative region.
type Province struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (p Province) EntityID() int64     { return p.ID }
func (p Province) DisplayName() string { return p.Name }
func (p Province) Times() (created, updated time.Time) { return p.CreatedAt, p.UpdatedAt }

// NewProvince returns the empty province used for blank forms.
func NewProvince() Province {
	return Province{ID: UnsavedID}
}

// City belongs to a province.
type City struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	ProvinceID  int64     `json:"provinceId"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (c City) EntityID() int64     { return c.ID }
func (c City) DisplayName() string { return c.Name }
func (c City) Times() (created, updated time.Time) { return c.CreatedAt, c.UpdatedAt }

// NewCity returns the empty city used for blank forms.
func NewCity() City {
	return City{ID: UnsavedID, ProvinceID: UnsavedID}
}

package domain

import "time"

// Route is a scheduled connection run by a company between two cities,
// optionally passing through a third.
type Route struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	CompanyID       int64     `json:"companyId"`
	StartCityID     int64     `json:"startCityId"`
	EndCityID       int64     `json:"endCityId"`
	ViaCityID       int64     `json:"viaCityId"`
	StartTime       string    `json:"start_time"` // HH:MM or HH:MM:SS
	EndTime         string    `json:"end_time"`
	Price           float64   `json:"price"`
	Distance        float64   `json:"distance"`
	StartTerminalID int64     `json:"startTerminalId"`
	EndTerminalID   int64     `json:"endTerminalId"`
	BusInfoID       int64     `json:"busInfoId"`
	Description     string    `json:"description"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (r Route) EntityID() int64     { return r.ID }
func (r Route) DisplayName() string { return r.Name }
func (r Route) Times() (created, updated time.Time) { return r.CreatedAt, r.UpdatedAt }

// NewRoute returns the empty route used for blank forms.
func NewRoute() Route {
	return Route{
		ID:              UnsavedID,
		CompanyID:       UnsavedID,
		StartCityID:     UnsavedID,
		EndCityID:       UnsavedID,
		ViaCityID:       UnsavedID,
		Price:           -1,
		Distance:        -1,
		StartTerminalID: UnsavedID,
		EndTerminalID:   UnsavedID,
		BusInfoID:       UnsavedID,
	}
}

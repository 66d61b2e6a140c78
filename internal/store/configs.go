package store

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/naveenspark/busdesk/pkg/client"
	"github.com/naveenspark/busdesk/pkg/domain"
)

func byName[T domain.Entity](item T) string { return item.DisplayName() }

type describedPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ProvinceConfig describes the province collection.
var ProvinceConfig = Config[domain.Province]{
	Name:     "province",
	Resource: client.ProvincePath,
	Key:      byName[domain.Province],
	Empty:    domain.NewProvince,
	Payload: func(p domain.Province) (any, error) {
		return describedPayload{Name: p.Name, Description: p.Description}, nil
	},
}

// RoleConfig describes the role collection.
var RoleConfig = Config[domain.Role]{
	Name:     "role",
	Resource: client.RolePath,
	Key:      byName[domain.Role],
	Empty:    domain.NewRole,
	Payload: func(r domain.Role) (any, error) {
		return describedPayload{Name: r.Name, Description: r.Description}, nil
	},
}

// CityConfig describes the city collection.
var CityConfig = Config[domain.City]{
	Name:     "city",
	Resource: client.CityPath,
	Key:      byName[domain.City],
	Empty:    domain.NewCity,
	Payload: func(c domain.City) (any, error) {
		return struct {
			Name        string `json:"name"`
			ProvinceID  int64  `json:"provinceId"`
			Description string `json:"description"`
		}{c.Name, c.ProvinceID, c.Description}, nil
	},
}

type routePayload struct {
	Name            string  `json:"name"`
	CompanyID       int64   `json:"companyId"`
	StartCityID     int64   `json:"startCityId"`
	EndCityID       int64   `json:"endCityId"`
	ViaCityID       int64   `json:"viaCityId"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	Price           float64 `json:"price"`
	Distance        float64 `json:"distance"`
	StartTerminalID int64   `json:"startTerminalId"`
	EndTerminalID   int64   `json:"endTerminalId"`
	BusInfoID       int64   `json:"busInfoId"`
	Description     string  `json:"description"`
}

// RouteConfig describes the route collection.
var RouteConfig = Config[domain.Route]{
	Name:     "route",
	Resource: client.RoutePath,
	Key:      byName[domain.Route],
	Empty:    domain.NewRoute,
	Payload: func(r domain.Route) (any, error) {
		return routePayload{
			Name:            r.Name,
			CompanyID:       r.CompanyID,
			StartCityID:     r.StartCityID,
			EndCityID:       r.EndCityID,
			ViaCityID:       r.ViaCityID,
			StartTime:       r.StartTime,
			EndTime:         r.EndTime,
			Price:           r.Price,
			Distance:        r.Distance,
			StartTerminalID: r.StartTerminalID,
			EndTerminalID:   r.EndTerminalID,
			BusInfoID:       r.BusInfoID,
			Description:     r.Description,
		}, nil
	},
}

// UserConfig describes the user collection. Users are unique by email.
var UserConfig = Config[domain.User]{
	Name:     "user",
	Resource: client.UserPath,
	Key:      func(u domain.User) string { return u.Email },
	Empty:    domain.NewUser,
	Payload: func(u domain.User) (any, error) {
		return struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Password string `json:"password,omitempty"`
			RoleID   int64  `json:"roleId"`
			IsActive bool   `json:"isActive"`
		}{u.Name, u.Email, u.Password, u.RoleID, u.IsActive}, nil
	},
}

// CompanyConfig describes the company collection. Companies are sent as
// multipart forms so a logo file can travel with them.
var CompanyConfig = Config[domain.Company]{
	Name:     "company",
	Resource: client.CompanyPath,
	Key:      byName[domain.Company],
	Empty:    domain.NewCompany,
	Payload: func(c domain.Company) (any, error) {
		return companyForm(c, false)
	},
	UpdatePayload: func(c domain.Company) (any, error) {
		return companyForm(c, true)
	},
}

// companyForm builds the multipart body. The logo file goes in the "files"
// part, the rest as text fields.
func companyForm(c domain.Company, withID bool) (*client.Multipart, error) {
	form := &client.Multipart{}
	if withID {
		form.Add("id", strconv.FormatInt(c.ID, 10))
	}
	form.Add("name", c.Name)
	form.Add("fullname", c.FullName)
	form.Add("description", c.Description)
	form.Add("rating", strconv.FormatFloat(c.Rating, 'f', -1, 64))
	form.Add("logo", c.Logo)

	if c.LogoFile != "" {
		data, err := os.ReadFile(c.LogoFile)
		if err != nil {
			return nil, fmt.Errorf("read logo: %w", err)
		}
		form.Files = append(form.Files, client.FormFile{
			Field:    "files",
			Filename: filepath.Base(c.LogoFile),
			Content:  bytes.NewReader(data),
		})
	}
	return form, nil
}

package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/naveenspark/busdesk/internal/store"
	"github.com/naveenspark/busdesk/internal/view"
	"github.com/naveenspark/busdesk/pkg/domain"
)

// formField is one editable input of an entity form.
type formField[T any] struct {
	label  string
	masked bool
	get    func(T) string
	set    func(T, string) (T, error)
}

func textInput[T any](label string, get func(T) string, set func(*T, string)) formField[T] {
	return formField[T]{
		label: label,
		get:   get,
		set: func(t T, v string) (T, error) {
			set(&t, v)
			return t, nil
		},
	}
}

// numberInput edits a float field; blank means unset (-1).
func numberInput[T any](label string, get func(T) float64, set func(*T, float64)) formField[T] {
	return formField[T]{
		label: label,
		get: func(t T) string {
			if v := get(t); v >= 0 {
				return strconv.FormatFloat(v, 'f', -1, 64)
			}
			return ""
		},
		set: func(t T, v string) (T, error) {
			v = strings.TrimSpace(v)
			if v == "" {
				set(&t, -1)
				return t, nil
			}
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || f < 0 {
				return t, fmt.Errorf("%s must be a positive number", label)
			}
			set(&t, f)
			return t, nil
		},
	}
}

// refInput edits a foreign key by typing the referenced record's name.
func refInput[T any, R domain.Entity](label string, refs func() []R, get func(T) int64, set func(*T, int64)) formField[T] {
	return formField[T]{
		label: label,
		get:   func(t T) string { return view.ResolveName(get(t), refs()) },
		set: func(t T, v string) (T, error) {
			id, err := lookupID(strings.TrimSpace(v), refs())
			if err != nil {
				return t, fmt.Errorf("%s: %w", label, err)
			}
			set(&t, id)
			return t, nil
		},
	}
}

// lookupID finds the id of the record named name, ignoring case. A blank name
// is the unset sentinel.
func lookupID[R domain.Entity](name string, refs []R) (int64, error) {
	if name == "" {
		return domain.UnsavedID, nil
	}
	for _, r := range refs {
		if strings.EqualFold(r.DisplayName(), name) {
			return r.EntityID(), nil
		}
	}
	return 0, fmt.Errorf("no entry named %q", name)
}

func provinceForm() []formField[domain.Province] {
	return []formField[domain.Province]{
		textInput("name", func(p domain.Province) string { return p.Name }, func(p *domain.Province, v string) { p.Name = v }),
		textInput("description", func(p domain.Province) string { return p.Description }, func(p *domain.Province, v string) { p.Description = v }),
	}
}

func cityForm(s *store.Stores) []formField[domain.City] {
	return []formField[domain.City]{
		textInput("name", func(c domain.City) string { return c.Name }, func(c *domain.City, v string) { c.Name = v }),
		refInput("province", s.Provinces.Items, func(c domain.City) int64 { return c.ProvinceID }, func(c *domain.City, id int64) { c.ProvinceID = id }),
		textInput("description", func(c domain.City) string { return c.Description }, func(c *domain.City, v string) { c.Description = v }),
	}
}

func companyForm() []formField[domain.Company] {
	return []formField[domain.Company]{
		textInput("name", func(c domain.Company) string { return c.Name }, func(c *domain.Company, v string) { c.Name = v }),
		textInput("fullname", func(c domain.Company) string { return c.FullName }, func(c *domain.Company, v string) { c.FullName = v }),
		numberInput("rating", func(c domain.Company) float64 { return c.Rating }, func(c *domain.Company, v float64) { c.Rating = v }),
		textInput("description", func(c domain.Company) string { return c.Description }, func(c *domain.Company, v string) { c.Description = v }),
		textInput("logo file", func(c domain.Company) string { return c.LogoFile }, func(c *domain.Company, v string) { c.LogoFile = strings.TrimSpace(v) }),
	}
}

func routeForm(s *store.Stores) []formField[domain.Route] {
	cities := s.Cities.Items
	return []formField[domain.Route]{
		textInput("name", func(r domain.Route) string { return r.Name }, func(r *domain.Route, v string) { r.Name = v }),
		refInput("company", s.Companies.Items, func(r domain.Route) int64 { return r.CompanyID }, func(r *domain.Route, id int64) { r.CompanyID = id }),
		refInput("start", cities, func(r domain.Route) int64 { return r.StartCityID }, func(r *domain.Route, id int64) { r.StartCityID = id }),
		refInput("end", cities, func(r domain.Route) int64 { return r.EndCityID }, func(r *domain.Route, id int64) { r.EndCityID = id }),
		refInput("via", cities, func(r domain.Route) int64 { return r.ViaCityID }, func(r *domain.Route, id int64) { r.ViaCityID = id }),
		textInput("start time", func(r domain.Route) string { return r.StartTime }, func(r *domain.Route, v string) { r.StartTime = strings.TrimSpace(v) }),
		textInput("end time", func(r domain.Route) string { return r.EndTime }, func(r *domain.Route, v string) { r.EndTime = strings.TrimSpace(v) }),
		numberInput("price", func(r domain.Route) float64 { return r.Price }, func(r *domain.Route, v float64) { r.Price = v }),
		numberInput("distance", func(r domain.Route) float64 { return r.Distance }, func(r *domain.Route, v float64) { r.Distance = v }),
		textInput("description", func(r domain.Route) string { return r.Description }, func(r *domain.Route, v string) { r.Description = v }),
	}
}

func roleForm() []formField[domain.Role] {
	return []formField[domain.Role]{
		textInput("name", func(r domain.Role) string { return r.Name }, func(r *domain.Role, v string) { r.Name = v }),
		textInput("description", func(r domain.Role) string { return r.Description }, func(r *domain.Role, v string) { r.Description = v }),
	}
}

func userForm(s *store.Stores) []formField[domain.User] {
	password := textInput("password", func(domain.User) string { return "" }, func(u *domain.User, v string) { u.Password = v })
	password.masked = true
	active := formField[domain.User]{
		label: "active",
		get: func(u domain.User) string {
			if u.IsActive {
				return "yes"
			}
			return "no"
		},
		set: func(u domain.User, v string) (domain.User, error) {
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "yes", "y", "true", "":
				u.IsActive = true
			case "no", "n", "false":
				u.IsActive = false
			default:
				return u, fmt.Errorf("active must be yes or no")
			}
			return u, nil
		},
	}
	return []formField[domain.User]{
		textInput("name", func(u domain.User) string { return u.Name }, func(u *domain.User, v string) { u.Name = v }),
		textInput("email", func(u domain.User) string { return u.Email }, func(u *domain.User, v string) { u.Email = strings.TrimSpace(v) }),
		password,
		refInput("role", s.Roles.Items, func(u domain.User) int64 { return u.RoleID }, func(u *domain.User, id int64) { u.RoleID = id }),
		active,
	}
}

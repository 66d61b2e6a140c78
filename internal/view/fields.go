package view

import "github.com/naveenspark/busdesk/pkg/domain"

// ProvinceFields are the province columns.
func ProvinceFields() []Field[domain.Province] {
	return []Field[domain.Province]{
		TextField("name", func(p domain.Province) string { return p.Name }, true),
		TextField("description", func(p domain.Province) string { return p.Description }, true),
	}
}

// CityFields are the city columns; the province is resolved from provinces.
func CityFields(provinces []domain.Province) []Field[domain.City] {
	return []Field[domain.City]{
		TextField("name", func(c domain.City) string { return c.Name }, true),
		RefField("province", func(c domain.City) int64 { return c.ProvinceID }, provinces),
		TextField("description", func(c domain.City) string { return c.Description }, true),
	}
}

// CompanyFields are the company columns.
func CompanyFields() []Field[domain.Company] {
	return []Field[domain.Company]{
		TextField("name", func(c domain.Company) string { return c.Name }, true),
		TextField("fullname", func(c domain.Company) string { return c.FullName }, true),
		NumberField("rating", func(c domain.Company) float64 { return c.Rating }),
		TextField("description", func(c domain.Company) string { return c.Description }, true),
	}
}

// RouteFields are the route columns; company and cities are resolved by name.
func RouteFields(companies []domain.Company, cities []domain.City) []Field[domain.Route] {
	return []Field[domain.Route]{
		TextField("name", func(r domain.Route) string { return r.Name }, true),
		RefField("company", func(r domain.Route) int64 { return r.CompanyID }, companies),
		RefField("start", func(r domain.Route) int64 { return r.StartCityID }, cities),
		RefField("end", func(r domain.Route) int64 { return r.EndCityID }, cities),
		RefField("via", func(r domain.Route) int64 { return r.ViaCityID }, cities),
		TimeField("start_time", func(r domain.Route) string { return r.StartTime }),
		TimeField("end_time", func(r domain.Route) string { return r.EndTime }),
		NumberField("price", func(r domain.Route) float64 { return r.Price }),
		NumberField("distance", func(r domain.Route) float64 { return r.Distance }),
		TextField("description", func(r domain.Route) string { return r.Description }, true),
	}
}

// RoleFields are the role columns.
func RoleFields() []Field[domain.Role] {
	return []Field[domain.Role]{
		TextField("name", func(r domain.Role) string { return r.Name }, true),
		TextField("description", func(r domain.Role) string { return r.Description }, true),
	}
}

// UserFields are the user columns; the role is resolved from roles.
func UserFields(roles []domain.Role) []Field[domain.User] {
	active := Field[domain.User]{
		Name: "active",
		Kind: Number,
		Num: func(u domain.User) float64 {
			if u.IsActive {
				return 1
			}
			return 0
		},
		Value: func(u domain.User) string {
			if u.IsActive {
				return "yes"
			}
			return "no"
		},
	}
	return []Field[domain.User]{
		TextField("name", func(u domain.User) string { return u.Name }, true),
		TextField("email", func(u domain.User) string { return u.Email }, true),
		RefField("role", func(u domain.User) int64 { return u.RoleID }, roles),
		active,
	}
}

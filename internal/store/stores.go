package store

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/naveenspark/busdesk/pkg/client"
	"github.com/naveenspark/busdesk/pkg/domain"
)

// Stores holds one cache per collection of the admin API.
type Stores struct {
	Provinces *Cache[domain.Province]
	Cities    *Cache[domain.City]
	Companies *Cache[domain.Company]
	Routes    *Cache[domain.Route]
	Roles     *Cache[domain.Role]
	Users     *Cache[domain.User]
}

// New builds the six caches on top of api.
func New(api *client.Client, log zerolog.Logger) *Stores {
	return &Stores{
		Provinces: NewCache(api, ProvinceConfig, log),
		Cities:    NewCache(api, CityConfig, log),
		Companies: NewCache(api, CompanyConfig, log),
		Routes:    NewCache(api, RouteConfig, log),
		Roles:     NewCache(api, RoleConfig, log),
		Users:     NewCache(api, UserConfig, log),
	}
}

// FetchAll loads every collection concurrently. Each cache records its own
// failure; the first one is returned.
func (s *Stores) FetchAll(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return s.Provinces.FetchAll(ctx) })
	g.Go(func() error { return s.Cities.FetchAll(ctx) })
	g.Go(func() error { return s.Companies.FetchAll(ctx) })
	g.Go(func() error { return s.Routes.FetchAll(ctx) })
	g.Go(func() error { return s.Roles.FetchAll(ctx) })
	g.Go(func() error { return s.Users.FetchAll(ctx) })
	return g.Wait()
}

package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
)

// Resource paths of the admin API.
const (
	ProvincePath = "/province"
	CityPath     = "/city"
	CompanyPath  = "/company"
	RoutePath    = "/route"
	RolePath     = "/role"
	UserPath     = "/user"
)

// List fetches the full collection under path.
func List[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var items []T
	if err := c.get(ctx, path, &items); err != nil {
		return nil, fmt.Errorf("client.List %s: %w", path, err)
	}
	return items, nil
}

// Create posts payload to path and returns the stored record.
func Create[T any](ctx context.Context, c *Client, path string, payload any) (T, error) {
	var created T
	if err := c.post(ctx, path, payload, &created); err != nil {
		return created, fmt.Errorf("client.Create %s: %w", path, err)
	}
	return created, nil
}

// Update puts payload to path/id and returns the stored record.
func Update[T any](ctx context.Context, c *Client, path string, id int64, payload any) (T, error) {
	var updated T
	if err := c.doRequest(ctx, http.MethodPut, itemPath(path, id), payload, &updated); err != nil {
		return updated, fmt.Errorf("client.Update %s: %w", path, err)
	}
	return updated, nil
}

// Delete removes path/id.
func Delete(ctx context.Context, c *Client, path string, id int64) error {
	if err := c.doRequest(ctx, http.MethodDelete, itemPath(path, id), nil, nil); err != nil {
		return fmt.Errorf("client.Delete %s: %w", path, err)
	}
	return nil
}

func itemPath(path string, id int64) string {
	return path + "/" + strconv.FormatInt(id, 10)
}

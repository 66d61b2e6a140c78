package fakeapi

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/naveenspark/busdesk/pkg/client"
	"github.com/naveenspark/busdesk/pkg/domain"
)

func do(t *testing.T, srv *httptest.Server, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestLoginSetsRefreshCookie(t *testing.T) {
	api := New()
	srv := httptest.NewServer(api.Handler())
	defer srv.Close()
	api.AddAccount("ana@example.com", "Ana", "secret")

	resp := do(t, srv, http.MethodPost, "/auth/login", "", domain.Credentials{Email: "ana@example.com", Password: "secret"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var auth domain.AuthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&auth))
	require.NotEmpty(t, auth.Token)
	require.Equal(t, "Ana", auth.User.Name)

	var found bool
	for _, c := range resp.Cookies() {
		if c.Name == refreshCookie && c.Value != "" {
			found = true
		}
	}
	require.True(t, found, "login must set the refresh cookie")
	require.NotEmpty(t, resp.Header.Get(requestIDHeader))
}

func TestLoginWrongPasswordForbidden(t *testing.T) {
	api := New()
	srv := httptest.NewServer(api.Handler())
	defer srv.Close()
	api.AddAccount("ana@example.com", "Ana", "secret")

	resp := do(t, srv, http.MethodPost, "/auth/login", "", domain.Credentials{Email: "ana@example.com", Password: "nope"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestResourcesRequireToken(t *testing.T) {
	api := New()
	srv := httptest.NewServer(api.Handler())
	defer srv.Close()
	api.AddAccount("ana@example.com", "Ana", "secret")

	require.Equal(t, http.StatusUnauthorized, do(t, srv, http.MethodGet, client.CityPath, "", nil).StatusCode)
	require.Equal(t, http.StatusUnauthorized, do(t, srv, http.MethodGet, client.CityPath, "garbage", nil).StatusCode)

	tok := api.Token("ana@example.com")
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, client.CityPath, tok, nil).StatusCode)

	api.ExpireTokens()
	require.Equal(t, http.StatusUnauthorized, do(t, srv, http.MethodGet, client.CityPath, tok, nil).StatusCode)
}

func TestCrudRoundTrip(t *testing.T) {
	api := New()
	srv := httptest.NewServer(api.Handler())
	defer srv.Close()
	api.AddAccount("ana@example.com", "Ana", "secret")
	tok := api.Token("ana@example.com")

	resp := do(t, srv, http.MethodPost, client.ProvincePath, tok, map[string]any{"name": "Ontario"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created domain.Province
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.Positive(t, created.ID)
	require.False(t, created.CreatedAt.IsZero())

	path := client.ProvincePath + "/" + jsonNumber(created.ID)
	resp = do(t, srv, http.MethodPut, path, tok, map[string]any{"name": "Ontario (ON)", "id": 999})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	recs := api.Records(client.ProvincePath)
	require.Len(t, recs, 1)
	require.Equal(t, "Ontario (ON)", recs[0]["name"])
	require.EqualValues(t, created.ID, recordID(recs[0]), "update must not change the id")

	require.Equal(t, http.StatusNoContent, do(t, srv, http.MethodDelete, path, tok, nil).StatusCode)
	require.Empty(t, api.Records(client.ProvincePath))
	require.Equal(t, http.StatusNotFound, do(t, srv, http.MethodDelete, path, tok, nil).StatusCode)

	require.Equal(t, 1, api.Hits("POST "+client.ProvincePath))
	require.Equal(t, 2, api.Hits("DELETE "+client.ProvincePath+"/:id"))
}

func TestSeedAssignsIDs(t *testing.T) {
	api := New()
	api.Seed(client.RolePath, domain.Role{Name: "admin"}, domain.Role{ID: 40, Name: "driver"})
	api.Seed(client.RolePath, domain.Role{Name: "clerk"})

	recs := api.Records(client.RolePath)
	require.Len(t, recs, 3)
	require.EqualValues(t, 40, recordID(recs[1]))
	require.EqualValues(t, 41, recordID(recs[2]))
}

func TestCreateMultipartStoresLogoName(t *testing.T) {
	api := New()
	srv := httptest.NewServer(api.Handler())
	defer srv.Close()
	api.AddAccount("ana@example.com", "Ana", "secret")

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("name", "Acme"))
	require.NoError(t, w.WriteField("rating", "4.5"))
	part, err := w.CreateFormFile("files", "acme.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, srv.URL+client.CompanyPath, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+api.Token("ana@example.com"))
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	recs := api.Records(client.CompanyPath)
	require.Len(t, recs, 1)
	require.Equal(t, "acme.png", recs[0]["logo"])
	require.Equal(t, 4.5, recs[0]["rating"])
}

func TestRefreshNeedsLiveSession(t *testing.T) {
	api := New()
	srv := httptest.NewServer(api.Handler())
	defer srv.Close()

	require.Equal(t, http.StatusUnauthorized, do(t, srv, http.MethodGet, "/auth/refresh", "", nil).StatusCode)
	require.Equal(t, 1, api.Refreshes())
}

func TestCheckReportsAccount(t *testing.T) {
	api := New()
	srv := httptest.NewServer(api.Handler())
	defer srv.Close()
	api.AddAccount("ana@example.com", "Ana", "secret")

	resp := do(t, srv, http.MethodGet, "/auth/check?email=ana@example.com", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var u domain.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&u))
	require.Equal(t, "ana@example.com", u.Email)

	resp = do(t, srv, http.MethodGet, "/auth/check?email=zed@example.com", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Empty(t, data)
}

func jsonNumber(id int64) string {
	data, _ := json.Marshal(id)
	return string(data)
}

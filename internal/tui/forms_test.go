package tui

import (
	"testing"

	"github.com/naveenspark/busdesk/pkg/domain"
)

func TestLookupID(t *testing.T) {
	provinces := []domain.Province{{ID: 1, Name: "Ontario"}, {ID: 2, Name: "Québec"}}

	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{"exact", "Ontario", 1, false},
		{"case-insensitive", "QUÉBEC", 2, false},
		{"blank is unset", "", domain.UnsavedID, false},
		{"unknown", "Atlantis", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := lookupID(tt.input, provinces)
			if (err != nil) != tt.wantErr {
				t.Fatalf("lookupID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("lookupID(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestNumberInput(t *testing.T) {
	f := companyForm()[2]
	if f.label != "rating" {
		t.Fatalf("field 2 = %q, want rating", f.label)
	}

	if got := f.get(domain.NewCompany()); got != "" {
		t.Errorf("unset rating shows %q, want empty", got)
	}
	c, err := f.set(domain.NewCompany(), " 4.5 ")
	if err != nil || c.Rating != 4.5 {
		t.Errorf("set(4.5) = %v, %v", c.Rating, err)
	}
	c, err = f.set(domain.Company{Rating: 3}, "")
	if err != nil || c.Rating != -1 {
		t.Errorf("set(blank) = %v, %v; want -1", c.Rating, err)
	}
	for _, bad := range []string{"abc", "-2"} {
		if _, err := f.set(domain.NewCompany(), bad); err == nil {
			t.Errorf("set(%q) accepted", bad)
		}
	}
}

func TestUserActiveInput(t *testing.T) {
	var active formField[domain.User]
	for _, f := range userForm(newTestEnv(t).stores) {
		if f.label == "active" {
			active = f
		}
	}
	if active.set == nil {
		t.Fatal("user form has no active field")
	}

	tests := []struct {
		in   string
		want bool
	}{
		{"yes", true},
		{"N", false},
		{"false", false},
		{"", true},
	}
	for _, tt := range tests {
		u, err := active.set(domain.User{}, tt.in)
		if err != nil || u.IsActive != tt.want {
			t.Errorf("set(%q) = %v, %v; want %v", tt.in, u.IsActive, err, tt.want)
		}
	}
	if _, err := active.set(domain.User{}, "maybe"); err == nil {
		t.Error("set(maybe) accepted")
	}
	if got := active.get(domain.User{IsActive: false}); got != "no" {
		t.Errorf("get(inactive) = %q, want no", got)
	}
}

func TestUserPasswordIsMaskedAndNeverShown(t *testing.T) {
	for _, f := range userForm(newTestEnv(t).stores) {
		if f.label != "password" {
			continue
		}
		if !f.masked {
			t.Error("password field must be masked")
		}
		if got := f.get(domain.User{Password: "secret"}); got != "" {
			t.Errorf("password get = %q, want empty", got)
		}
		return
	}
	t.Fatal("user form has no password field")
}

func TestRefInputShowsName(t *testing.T) {
	refs := []domain.Company{{ID: 3, Name: "Acme"}}
	f := refInput("company", func() []domain.Company { return refs },
		func(r domain.Route) int64 { return r.CompanyID },
		func(r *domain.Route, id int64) { r.CompanyID = id })

	if got := f.get(domain.Route{CompanyID: 3}); got != "Acme" {
		t.Errorf("get() = %q, want Acme", got)
	}
	r, err := f.set(domain.NewRoute(), "acme")
	if err != nil || r.CompanyID != 3 {
		t.Errorf("set(acme) = %d, %v", r.CompanyID, err)
	}
}

package main

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/naveenspark/busdesk/internal/fakeapi"
	"github.com/naveenspark/busdesk/internal/session"
)

// withBackend points the commands at a fresh fake backend and temp files.
func withBackend(t *testing.T) (*fakeapi.Server, string) {
	t.Helper()
	api := fakeapi.New()
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	tokenFile := filepath.Join(dir, "token")
	t.Setenv("BUSDESK_API_URL", srv.URL)
	t.Setenv("BUSDESK_TOKEN_FILE", tokenFile)
	t.Setenv("BUSDESK_LOG_FILE", filepath.Join(dir, "busdesk.log"))
	t.Setenv("BUSDESK_TOKEN", "")
	t.Setenv("BUSDESK_METRICS_ADDR", "")

	api.AddAccount("ana@example.com", "Ana", "secret")
	return api, tokenFile
}

func readTokenFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return ""
	}
	if err != nil {
		t.Fatal(err)
	}
	return strings.TrimSpace(string(data))
}

func TestRunVersion(t *testing.T) {
	for _, arg := range []string{"version", "--version", "-v"} {
		var out bytes.Buffer
		if err := run([]string{arg}, strings.NewReader(""), &out); err != nil {
			t.Fatalf("run(%s) error: %v", arg, err)
		}
		if got := out.String(); got != "busdesk "+version+"\n" {
			t.Errorf("run(%s) = %q", arg, got)
		}
	}
}

func TestRunHelpListsCommands(t *testing.T) {
	var out bytes.Buffer
	if err := run([]string{"help"}, strings.NewReader(""), &out); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"busdesk login", "busdesk register", "busdesk logout", "busdesk check"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("help missing %q", want)
		}
	}
}

func TestRunUnknownCommand(t *testing.T) {
	withBackend(t)
	err := run([]string{"frobnicate"}, strings.NewReader(""), &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "frobnicate") {
		t.Errorf("run(frobnicate) error = %v", err)
	}
}

func TestRunLoginStoresToken(t *testing.T) {
	_, tokenFile := withBackend(t)

	var out bytes.Buffer
	if err := run([]string{"login", "ana@example.com"}, strings.NewReader("secret\n"), &out); err != nil {
		t.Fatalf("login error: %v", err)
	}
	if !strings.Contains(out.String(), "Signed in as Ana") {
		t.Errorf("output = %q", out.String())
	}
	if readTokenFile(t, tokenFile) == "" {
		t.Error("token file is empty after login")
	}
}

func TestRunLoginPromptsForEmail(t *testing.T) {
	_, tokenFile := withBackend(t)

	var out bytes.Buffer
	if err := run([]string{"login"}, strings.NewReader("ana@example.com\nsecret"), &out); err != nil {
		t.Fatalf("login error: %v", err)
	}
	if !strings.Contains(out.String(), "email: ") {
		t.Errorf("output = %q, want an email prompt", out.String())
	}
	if readTokenFile(t, tokenFile) == "" {
		t.Error("token file is empty after login")
	}
}

func TestRunLoginBadPassword(t *testing.T) {
	_, tokenFile := withBackend(t)

	err := run([]string{"login", "ana@example.com"}, strings.NewReader("nope\n"), &bytes.Buffer{})
	if err == nil || err.Error() != session.MsgBadCredentials {
		t.Errorf("login error = %v, want %q", err, session.MsgBadCredentials)
	}
	if got := readTokenFile(t, tokenFile); got != "" {
		t.Errorf("token file = %q after failed login, want empty", got)
	}
}

func TestRunLoginMissingPassword(t *testing.T) {
	api, _ := withBackend(t)

	err := run([]string{"login", "ana@example.com"}, strings.NewReader(""), &bytes.Buffer{})
	if err == nil {
		t.Fatal("login without a password succeeded")
	}
	if api.Requests() != 0 {
		t.Errorf("requests = %d, want 0", api.Requests())
	}
}

func TestRunRegister(t *testing.T) {
	_, tokenFile := withBackend(t)

	var out bytes.Buffer
	if err := run([]string{"register", "bo@example.com", "Bo"}, strings.NewReader("hunter2\n"), &out); err != nil {
		t.Fatalf("register error: %v", err)
	}
	if !strings.Contains(out.String(), "signed in as Bo") {
		t.Errorf("output = %q", out.String())
	}
	if readTokenFile(t, tokenFile) == "" {
		t.Error("token file is empty after register")
	}
}

func TestRunLogoutClearsToken(t *testing.T) {
	_, tokenFile := withBackend(t)
	if err := run([]string{"login", "ana@example.com"}, strings.NewReader("secret\n"), &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := run([]string{"logout"}, strings.NewReader(""), &out); err != nil {
		t.Fatalf("logout error: %v", err)
	}
	if readTokenFile(t, tokenFile) != "" {
		t.Error("token file still holds a token after logout")
	}
	if !strings.Contains(out.String(), "Logged out") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunLogoutServerFailureStillClears(t *testing.T) {
	api, tokenFile := withBackend(t)
	if err := run([]string{"login", "ana@example.com"}, strings.NewReader("secret\n"), &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}
	api.FailLogout(true)

	var out bytes.Buffer
	if err := run([]string{"logout"}, strings.NewReader(""), &out); err != nil {
		t.Fatalf("logout error: %v", err)
	}
	if readTokenFile(t, tokenFile) != "" {
		t.Error("token file still holds a token after logout")
	}
	if !strings.Contains(out.String(), "locally") {
		t.Errorf("output = %q, want local logout notice", out.String())
	}
}

func TestRunCheck(t *testing.T) {
	withBackend(t)

	tests := []struct {
		email string
		want  string
	}{
		{"ana@example.com", "ana@example.com has an account"},
		{"zed@example.com", "no account for zed@example.com"},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		if err := run([]string{"check", tt.email}, strings.NewReader(""), &out); err != nil {
			t.Fatalf("check %s: %v", tt.email, err)
		}
		if !strings.Contains(out.String(), tt.want) {
			t.Errorf("check %s = %q, want %q", tt.email, out.String(), tt.want)
		}
	}

	if err := run([]string{"check"}, strings.NewReader(""), &bytes.Buffer{}); err == nil {
		t.Error("check without an email succeeded")
	}
}

func TestBannerNotEmpty(t *testing.T) {
	if strings.TrimSpace(banner()) == "" {
		t.Error("banner() is empty")
	}
}

package tui

import (
	"strings"
	"testing"
)

func TestShimmerLogoSpellsName(t *testing.T) {
	for _, frame := range []int{0, 7, 250} {
		got := renderShimmerLogo(frame)
		for _, r := range "BUSDESK" {
			if !strings.ContainsRune(got, r) {
				t.Errorf("frame %d: logo %q missing %q", frame, got, r)
			}
		}
	}
}

func TestClampByte(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{-3, 0},
		{0, 0},
		{127.9, 127},
		{255, 255},
		{300, 255},
	}
	for _, tt := range tests {
		if got := clampByte(tt.in); got != tt.want {
			t.Errorf("clampByte(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestStatusLine(t *testing.T) {
	if got := statusLine("", true); got != "" {
		t.Errorf("statusLine(empty) = %q, want empty", got)
	}
	if got := statusLine("saved", false); !strings.Contains(got, "saved") {
		t.Errorf("statusLine(saved) = %q", got)
	}
	if got := statusLine("entry not found", true); !strings.Contains(got, "entry not found") {
		t.Errorf("statusLine(error) = %q", got)
	}
}

func TestHelpBarPairsKeysWithLabels(t *testing.T) {
	got := helpBar("n", "new", "d", "delete", "dangling")
	for _, want := range []string{"n", "new", "d", "delete"} {
		if !strings.Contains(got, want) {
			t.Errorf("helpBar() = %q, missing %q", got, want)
		}
	}
	if strings.Contains(got, "dangling") {
		t.Errorf("helpBar() = %q, odd trailing key must be dropped", got)
	}
}

func TestHelpEntryFormat(t *testing.T) {
	result := helpEntry("q", "quit")
	if !strings.Contains(result, "q") {
		t.Errorf("helpEntry('q','quit') does not contain key 'q': %q", result)
	}
	if !strings.Contains(result, "quit") {
		t.Errorf("helpEntry('q','quit') does not contain label 'quit': %q", result)
	}
}

func TestHelpEntryMultipleKeys(t *testing.T) {
	tests := []struct {
		key   string
		label string
	}{
		{"j/k", "nav"},
		{"enter", "save"},
		{"esc", "cancel"},
		{"ctrl+s", "submit"},
	}

	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			result := helpEntry(tc.key, tc.label)
			if !strings.Contains(result, tc.key) {
				t.Errorf("helpEntry(%q, %q) missing key", tc.key, tc.label)
			}
			if !strings.Contains(result, tc.label) {
				t.Errorf("helpEntry(%q, %q) missing label", tc.key, tc.label)
			}
		})
	}
}

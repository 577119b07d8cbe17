package obs

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"
)

func TestCanonicalPath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"/metrics", "/metrics"},
		{"/auth/login", "/auth/login"},
		{"/events/upcoming", "/events/upcoming"},
		{"/events?organizer=42", "/events"},
		{"/events/3f2b8c1e-5d4a-4c1b-9a51-7f6e2d9c0b11", "/events/:id"},
		{"/api/events/3f2b8c1e-5d4a-4c1b-9a51-7f6e2d9c0b11/admins", "/api/events/:id/admins"},
		{"/api/events/3f2b8c1e-5d4a-4c1b-9a51-7f6e2d9c0b11/admins/01ARZ3NDEKTSV4RRFFQ69G5FAV", "/api/events/:id/admins/:id"},
		{"/api/event-participants/count/3f2b8c1e-5d4a-4c1b-9a51-7f6e2d9c0b11", "/api/event-participants/count/:id"},
		{"/users/3f2b8c1e-5d4a-4c1b-9a51-7f6e2d9c0b11", "/users/:id"},
	}
	for _, tc := range cases {
		if got := CanonicalPath(tc.in); got != tc.want {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestLoggerWritesJSONWithRenamedFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	Logger().Info().Str("component", "test").Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	for _, key := range []string{"ts", "level", "msg", "component"} {
		if _, ok := entry[key]; !ok {
			t.Fatalf("expected key %q in %v", key, entry)
		}
	}
	if entry["msg"] != "hello" {
		t.Fatalf("unexpected msg: %v", entry["msg"])
	}
}

func TestSetLevelRejectsUnknownLevel(t *testing.T) {
	if err := SetLevel("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

package validate

import (
	"strings"
	"testing"
)

func TestTitle(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid title",
			title:       "Morning commute to St Mary's",
			expectError: false,
		},
		{
			name:        "empty title",
			title:       "",
			expectError: true,
			errorMsg:    "title is required",
		},
		{
			name:        "title too long",
			title:       strings.Repeat("a", 81),
			expectError: true,
			errorMsg:    "title exceeds 80 characters",
		},
		{
			name:        "title at max length",
			title:       strings.Repeat("a", 80),
			expectError: false,
		},
		{
			name:        "title with special characters",
			title:       "Trip@Downtown!",
			expectError: true,
			errorMsg:    "title contains invalid characters; allowed letters, digits, space, hyphen, apostrophe",
		},
		{
			name:        "title with underscore",
			title:       "Trip_Downtown",
			expectError: true,
			errorMsg:    "title contains invalid characters; allowed letters, digits, space, hyphen, apostrophe",
		},
		{
			name:        "title with hyphens and digits",
			title:       "Route-66 pickup",
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Title(tt.title)
			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error for title '%s'", tt.title)
				}
				if tt.errorMsg != "" && err.Error() != tt.errorMsg {
					t.Fatalf("expected error message '%s', got '%s'", tt.errorMsg, err.Error())
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error for valid title '%s': %v", tt.title, err)
				}
			}
		})
	}
}

func TestRole(t *testing.T) {
	for _, role := range []string{"user", "assistant", "system"} {
		if err := Role(role); err != nil {
			t.Fatalf("unexpected error for role %q: %v", role, err)
		}
	}
	if err := Role("tool"); err == nil {
		t.Fatalf("expected error for unknown role")
	}
	if err := Role(""); err == nil {
		t.Fatalf("expected error for empty role")
	}
}

func TestToolKind(t *testing.T) {
	for _, kind := range []string{"find_providers", "search_addresses", "get_provider_info"} {
		if err := ToolKind(kind); err != nil {
			t.Fatalf("unexpected error for kind %q: %v", kind, err)
		}
	}
	if err := ToolKind("geocode"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestAppendMessage(t *testing.T) {
	if err := AppendMessage("user", "Where is my ride?"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := AppendMessage("user", ""); err == nil {
		t.Fatalf("expected error for empty content")
	}
	if err := AppendMessage("driver", "hello"); err == nil {
		t.Fatalf("expected error for bad role")
	}
	if err := AppendMessage("user", strings.Repeat("a", 16001)); err == nil {
		t.Fatalf("expected error for oversize content")
	}
}

func TestSaveExample(t *testing.T) {
	long := strings.Repeat("d", 501)
	ok := "A two-step provider search"

	if err := SaveExample("Cross-town trip", &ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := SaveExample("Cross-town trip", nil); err != nil {
		t.Fatalf("unexpected error with nil description: %v", err)
	}
	if err := SaveExample("", &ok); err == nil {
		t.Fatalf("expected error for missing title")
	}
	if err := SaveExample("Cross-town trip", &long); err == nil {
		t.Fatalf("expected error for oversize description")
	}
}

func TestMaxLen(t *testing.T) {
	tests := []struct {
		name        string
		value       *string
		limit       int
		expectError bool
	}{
		{name: "nil value", value: nil, limit: 10, expectError: false},
		{name: "value within limit", value: strPtr("short"), limit: 10, expectError: false},
		{name: "value at limit", value: strPtr(strings.Repeat("a", 10)), limit: 10, expectError: false},
		{name: "value exceeds limit", value: strPtr(strings.Repeat("a", 11)), limit: 10, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MaxLen("description", tt.value, tt.limit)
			if tt.expectError && err == nil {
				t.Fatalf("expected error for test case '%s'", tt.name)
			}
			if !tt.expectError && err != nil {
				t.Fatalf("unexpected error for test case '%s': %v", tt.name, err)
			}
		})
	}
}

func strPtr(s string) *string { return &s }

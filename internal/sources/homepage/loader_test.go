package homepage

import (
	"errors"
	"testing"
)

func TestParseBookmarks(t *testing.T) {
	yamlContent := `---
- Developer:
    - Github:
        - abbr: GH
          href: https://github.com/
    - Go docs:
        - href: https://pkg.go.dev/
          description: Package documentation
- Social:
    - Reddit:
        - icon: reddit.png
          href: https://reddit.com/
`

	entries, err := Parse([]byte(yamlContent))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := []Entry{
		{Group: "Developer", Name: "GH", Href: "https://github.com/"},
		{Group: "Developer", Name: "Go docs", Href: "https://pkg.go.dev/", Description: "Package documentation"},
		{Group: "Social", Name: "Reddit", Href: "https://reddit.com/"},
	}
	if len(entries) != len(want) {
		t.Fatalf("Parse() returned %d entries, want %d", len(entries), len(want))
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, entries[i], want[i])
		}
	}
}

func TestParseServices(t *testing.T) {
	yamlContent := `---
- Infrastructure:
    - AdGuard Home:
        icon: adguard-home.svg
        href: https://adguard.domain.ext
        description: Network-wide ads & trackers blocking DNS server
        widget:
          type: adguard
          username: {{HOMEPAGE_VAR_ADGUARD_USER}}
    - Traefik:
        icon: traefik.svg
        href: https://traefik.domain.ext
`

	entries, err := Parse([]byte(yamlContent))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("Parse() returned %d entries, want 2", len(entries))
	}
	if entries[0].Name != "AdGuard Home" || entries[0].Href != "https://adguard.domain.ext" {
		t.Errorf("first entry = %+v", entries[0])
	}
	if entries[1].Name != "Traefik" || entries[1].Group != "Infrastructure" {
		t.Errorf("second entry = %+v", entries[1])
	}
}

func TestParseWithTemplateVariables(t *testing.T) {
	yamlContent := `---
- Infrastructure:
    - AdGuard Home:
        icon: adguard-home.svg
        href: {{HOMEPAGE_VAR_ADGUARD_URL}}
        description: Test
    - Grafana:
        href: https://grafana.domain.ext
`

	entries, err := Parse([]byte(yamlContent))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	// the templated href is stripped, so the entry has no link
	if len(entries) != 1 || entries[0].Name != "Grafana" {
		t.Errorf("Parse() = %+v, want only Grafana", entries)
	}
}

func TestParseEmpty(t *testing.T) {
	entries, err := Parse([]byte(""))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Parse() returned %d entries, want 0", len(entries))
	}
}

func TestParseNotHomepage(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "mapping root", input: "key: value\n"},
		{name: "scalar group", input: "- just a string\n"},
		{name: "group not a list", input: "- Group: value\n"},
		{name: "scalar entry", input: "- Group:\n    - Entry: value\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			if !errors.Is(err, ErrNotHomepage) {
				t.Errorf("Parse() error = %v, want ErrNotHomepage", err)
			}
		})
	}
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("- Group:\n  - [unclosed\n"))
	if err == nil {
		t.Error("Parse() with invalid yaml should return error")
	}
}

func TestStripTemplateVariablesFunc(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "single template variable",
			input:    []byte("url: {{HOMEPAGE_VAR_URL}}"),
			expected: "url: \"\"",
		},
		{
			name:     "no template variables",
			input:    []byte("plain text"),
			expected: "plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := stripTemplateVariables(tt.input)
			if string(result) != tt.expected {
				t.Errorf("stripTemplateVariables() = %q, want %q", string(result), tt.expected)
			}
		})
	}
}

package homepage

import (
	"strings"
	"testing"

	"github.com/MrSnakeDoc/bookmarkpack/internal/domain"
)

func TestToInputs(t *testing.T) {
	entries := []Entry{
		{Group: "Developer", Name: "GH", Href: " https://github.com/ "},
		{Group: "", Name: "", Href: "https://pkg.go.dev/", Description: "Package documentation"},
	}

	inputs := ToInputs(entries)
	if len(inputs) != 2 {
		t.Fatalf("ToInputs() returned %d inputs, want 2", len(inputs))
	}

	first := inputs[0]
	if *first.URL != "https://github.com/" {
		t.Errorf("URL = %q, want trimmed href", *first.URL)
	}
	if first.Name == nil || *first.Name != "GH" {
		t.Errorf("Name = %v, want GH", first.Name)
	}
	if first.Tags == nil || len(*first.Tags) != 1 || (*first.Tags)[0] != "Developer" {
		t.Errorf("Tags = %v, want [Developer]", first.Tags)
	}
	if first.Notes != nil {
		t.Errorf("Notes = %q, want nil", *first.Notes)
	}

	second := inputs[1]
	if second.Name != nil {
		t.Errorf("Name = %q, want nil so the title can be extracted", *second.Name)
	}
	if second.Tags != nil {
		t.Errorf("Tags = %v, want nil", *second.Tags)
	}
	if second.Notes == nil || *second.Notes != "Package documentation" {
		t.Errorf("Notes = %v", second.Notes)
	}
}

func TestToInputsTruncates(t *testing.T) {
	entries := []Entry{{
		Name:        strings.Repeat("é", domain.MaxNameLength+10),
		Href:        "https://example.com",
		Description: strings.Repeat("x", domain.MaxNotesLength+1),
	}}

	in := ToInputs(entries)[0]
	if got := len([]rune(*in.Name)); got != domain.MaxNameLength {
		t.Errorf("name length = %d, want %d", got, domain.MaxNameLength)
	}
	if got := len(*in.Notes); got != domain.MaxNotesLength {
		t.Errorf("notes length = %d, want %d", got, domain.MaxNotesLength)
	}
	if errs := domain.ValidateBookmark(in, 0, true, false); len(errs) != 0 {
		t.Errorf("mapped input does not validate: %+v", errs)
	}
}

func TestToInputsEmpty(t *testing.T) {
	inputs := ToInputs(nil)
	if inputs == nil || len(inputs) != 0 {
		t.Errorf("ToInputs(nil) = %v, want empty slice", inputs)
	}
}

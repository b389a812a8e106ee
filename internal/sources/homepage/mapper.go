package homepage

import (
	"strings"
	"unicode/utf8"

	"github.com/MrSnakeDoc/bookmarkpack/internal/domain"
)

// ToInputs converts entries to bookmark inputs. The group becomes the only
// tag and the description becomes the notes. Values are not validated here.
func ToInputs(entries []Entry) []domain.BookmarkInput {
	inputs := make([]domain.BookmarkInput, 0, len(entries))
	for _, e := range entries {
		in := domain.BookmarkInput{
			URL: ptr(strings.TrimSpace(e.Href)),
		}
		if name := strings.TrimSpace(e.Name); name != "" {
			in.Name = ptr(truncate(name, domain.MaxNameLength))
		}
		if e.Description != "" {
			in.Notes = ptr(truncate(e.Description, domain.MaxNotesLength))
		}
		if g := strings.TrimSpace(e.Group); g != "" {
			in.Tags = &[]string{g}
		}
		inputs = append(inputs, in)
	}
	return inputs
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

func ptr[T any](v T) *T { return &v }

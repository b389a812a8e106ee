package enrich

import "strings"

// Flags selects which metadata to extract for a bookmark.
type Flags struct {
	Title   bool
	Favicon bool
}

// Any reports whether at least one extraction is requested.
func (f Flags) Any() bool { return f.Title || f.Favicon }

// ParseFlags reads the values of the extract query parameter. Values may be
// repeated or comma separated, unknown ones are ignored.
func ParseFlags(values []string) Flags {
	var f Flags
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			switch strings.ToLower(strings.TrimSpace(part)) {
			case "title":
				f.Title = true
			case "favicon":
				f.Favicon = true
			}
		}
	}
	return f
}

// Result holds extracted metadata. Empty fields mean nothing was found.
type Result struct {
	Title   string
	Favicon string
}

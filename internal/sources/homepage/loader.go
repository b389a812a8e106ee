// Package homepage reads link lists exported from the Homepage dashboard
// (https://gethomepage.dev), either bookmarks.yaml or services.yaml.
package homepage

import (
	"errors"
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

var (
	ErrNotHomepage = errors.New("not a homepage links file")

	templateVarRe = regexp.MustCompile(`\{\{[^}]+\}\}`)
)

// Parse reads a bookmarks.yaml or services.yaml document and returns its
// links in document order. Entries without href are skipped.
func Parse(data []byte) ([]Entry, error) {
	// Strip Homepage template variables ({{HOMEPAGE_VAR_...}})
	data = stripTemplateVariables(data)

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse homepage yaml: %w", err)
	}
	if len(doc.Content) == 0 {
		return []Entry{}, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: expected a list of groups", ErrNotHomepage)
	}

	entries := []Entry{}
	for _, group := range root.Content {
		if group.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: line %d: expected a group", ErrNotHomepage, group.Line)
		}
		for i := 0; i+1 < len(group.Content); i += 2 {
			found, err := parseGroup(group.Content[i].Value, group.Content[i+1])
			if err != nil {
				return nil, err
			}
			entries = append(entries, found...)
		}
	}
	return entries, nil
}

func parseGroup(name string, list *yaml.Node) ([]Entry, error) {
	if list.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: line %d: group %q is not a list", ErrNotHomepage, list.Line, name)
	}

	var entries []Entry
	for _, item := range list.Content {
		if item.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: line %d: expected an entry", ErrNotHomepage, item.Line)
		}
		for i := 0; i+1 < len(item.Content); i += 2 {
			e, err := parseEntry(item.Content[i].Value, item.Content[i+1])
			if err != nil {
				return nil, err
			}
			if e.Href == "" {
				continue
			}
			e.Group = name
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func parseEntry(name string, props *yaml.Node) (Entry, error) {
	switch props.Kind {
	case yaml.SequenceNode: // bookmarks.yaml
		// Each bookmark has a list with a single entry
		if len(props.Content) == 0 {
			return Entry{}, nil
		}
		var p BookmarkProps
		if err := props.Content[0].Decode(&p); err != nil {
			return Entry{}, fmt.Errorf("%w: bookmark %q: %v", ErrNotHomepage, name, err)
		}
		if p.Abbr != "" {
			name = p.Abbr
		}
		return Entry{Name: name, Href: p.Href, Description: p.Description}, nil

	case yaml.MappingNode: // services.yaml
		var p ServiceProps
		if err := props.Decode(&p); err != nil {
			return Entry{}, fmt.Errorf("%w: service %q: %v", ErrNotHomepage, name, err)
		}
		return Entry{Name: name, Href: p.Href, Description: p.Description}, nil
	}
	return Entry{}, fmt.Errorf("%w: line %d: unexpected value for %q", ErrNotHomepage, props.Line, name)
}

// stripTemplateVariables removes Homepage template variables from YAML
// Example: {{HOMEPAGE_VAR_ADGUARD_USER}} -> ""
func stripTemplateVariables(data []byte) []byte {
	return templateVarRe.ReplaceAll(data, []byte(`""`))
}

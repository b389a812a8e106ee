package homepage

// Homepage keeps links in two files sharing the same outer shape:
//
//	- Group:
//	    - Entry name: <props>
//
// In bookmarks.yaml <props> is a list holding a single BookmarkProps, in
// services.yaml it is a ServiceProps mapping.

// BookmarkProps is one entry of bookmarks.yaml.
type BookmarkProps struct {
	Icon        string `yaml:"icon,omitempty"`
	Abbr        string `yaml:"abbr,omitempty"`
	Href        string `yaml:"href"`
	Description string `yaml:"description,omitempty"`
}

// ServiceProps is one entry of services.yaml. Widget and monitoring settings
// are ignored.
type ServiceProps struct {
	Href        string `yaml:"href"`
	Icon        string `yaml:"icon,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// Entry is a link found in either file, in document order.
type Entry struct {
	Group       string
	Name        string
	Href        string
	Description string
}

package domain

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed reserved.yaml
var reservedYAML []byte

var reserved = mustLoadReserved(reservedYAML)

type reservedList struct {
	Usernames []string `yaml:"usernames"`
}

func mustLoadReserved(data []byte) map[string]struct{} {
	var list reservedList
	if err := yaml.Unmarshal(data, &list); err != nil {
		panic(fmt.Sprintf("failed to parse reserved usernames: %v", err))
	}
	set := make(map[string]struct{}, len(list.Usernames))
	for _, u := range list.Usernames {
		set[strings.ToLower(u)] = struct{}{}
	}
	return set
}

// IsReserved reports whether username cannot be claimed.
func IsReserved(username string) bool {
	_, ok := reserved[strings.ToLower(username)]
	return ok
}

package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// UserList is the ordered set of users to process. In YAML it may be written
// either as a comma-separated string or as a sequence.
type UserList []string

// UnmarshalYAML accepts "Admin, Bob" as well as [Admin, Bob].
func (u *UserList) UnmarshalYAML(value *yaml.Node) error {
	names, err := scalarOrSequence(value, "users", func(s string) []string {
		return strings.Split(s, ",")
	})
	if err != nil {
		return err
	}
	*u = normalizeUsers(names)
	return nil
}

func normalizeUsers(names []string) UserList {
	seen := make(map[string]struct{}, len(names))
	out := make(UserList, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if strings.EqualFold(n, AdminUser) {
			n = AdminUser
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// SectionList is an ordered list of library section names. In YAML it may be a
// comma-delimited string with optional quotes, or a sequence.
type SectionList []string

// UnmarshalYAML accepts `Movies, "4K Movies"` as well as a sequence of names.
func (l *SectionList) UnmarshalYAML(value *yaml.Node) error {
	names, err := scalarOrSequence(value, "library name", splitSections)
	if err != nil {
		return err
	}
	*l = cleanSections(names)
	return nil
}

// ParseSectionList splits a comma-delimited section string into trimmed,
// unquoted names.
func ParseSectionList(raw string) SectionList {
	return cleanSections(splitSections(raw))
}

func (l SectionList) String() string {
	return strings.Join(l, ", ")
}

func splitSections(raw string) []string {
	return strings.Split(raw, ",")
}

func cleanSections(names []string) SectionList {
	out := make(SectionList, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		n = strings.Trim(n, `"'`)
		n = strings.TrimSpace(n)
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}

func scalarOrSequence(value *yaml.Node, field string, split func(string) []string) ([]string, error) {
	switch value.Kind {
	case yaml.ScalarNode:
		return split(value.Value), nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: %s entries must be plain strings", item.Line, field)
			}
			out = append(out, item.Value)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("line %d: %s must be a string or a list of strings", value.Line, field)
	}
}

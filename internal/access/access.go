// Package access resolves permission names and guards screens and routes.
// Permission names follow the action_resource convention, e.g. create_product.
package access

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Set is a resolved permission set for one user. It is always passed
// explicitly to guard checks.
type Set map[string]struct{}

// NewSet builds a Set from permission names.
func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		n = strings.TrimSpace(strings.ToLower(n))
		if n != "" {
			s[n] = struct{}{}
		}
	}
	return s
}

// Has reports whether the permission is present.
func (s Set) Has(name string) bool {
	_, ok := s[strings.ToLower(name)]
	return ok
}

// Names returns the permission names sorted.
func (s Set) Names() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Allows reports whether every required permission is in the set.
// An empty requirement is always allowed.
func Allows(s Set, required ...string) bool {
	for _, r := range required {
		if r == "" {
			continue
		}
		if !s.Has(r) {
			return false
		}
	}
	return true
}

// Split breaks a permission name into action and resource.
// "create_product" -> ("create", "product"); "manage_rfq_evaluation" -> ("manage", "rfq_evaluation").
func Split(name string) (action, resource string) {
	action, resource, ok := strings.Cut(name, "_")
	if !ok {
		return name, ""
	}
	return action, resource
}

// Group is a display grouping of permissions sharing one resource.
type Group struct {
	Resource string   `json:"resource"`
	Label    string   `json:"label"`
	Actions  []string `json:"actions"`
}

// GroupByResource groups permission names by resource for display.
func GroupByResource(names []string) []Group {
	titler := cases.Title(language.English)
	idx := map[string]int{}
	var groups []Group
	for _, n := range names {
		action, resource := Split(n)
		if resource == "" {
			resource = "general"
		}
		i, ok := idx[resource]
		if !ok {
			i = len(groups)
			idx[resource] = i
			groups = append(groups, Group{
				Resource: resource,
				Label:    titler.String(strings.ReplaceAll(resource, "_", " ")),
			})
		}
		groups[i].Actions = append(groups[i].Actions, action)
	}
	sort.Slice(groups, func(a, b int) bool { return groups[a].Resource < groups[b].Resource })
	for i := range groups {
		sort.Strings(groups[i].Actions)
	}
	return groups
}

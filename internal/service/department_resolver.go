package service

import "strings"

// DepartmentResolver partitions referenced department names into those that
// must be created and those that already exist.
type DepartmentResolver struct{}

// NewDepartmentResolver constructs a DepartmentResolver.
func NewDepartmentResolver() *DepartmentResolver {
	return &DepartmentResolver{}
}

// Resolve matches exactly and case-sensitively. Both lists keep the order in
// which names first appear in candidates; blank names are ignored.
func (r *DepartmentResolver) Resolve(candidates, existing []string) (newDepartments, existingDepartments []string) {
	known := make(map[string]struct{}, len(existing))
	for _, name := range existing {
		known[name] = struct{}{}
	}

	newDepartments = []string{}
	existingDepartments = []string{}
	seen := make(map[string]struct{}, len(candidates))
	for _, name := range candidates {
		if strings.TrimSpace(name) == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		if _, ok := known[name]; ok {
			existingDepartments = append(existingDepartments, name)
		} else {
			newDepartments = append(newDepartments, name)
		}
	}
	return newDepartments, existingDepartments
}

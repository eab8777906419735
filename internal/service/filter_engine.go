package service

import (
	"strings"

	"github.com/noah-isme/hr-engage-api/internal/models"
)

// FilterEngine narrows an employee collection to the visible set.
type FilterEngine struct{}

// NewFilterEngine constructs a FilterEngine.
func NewFilterEngine() *FilterEngine {
	return &FilterEngine{}
}

// Apply keeps employees matching every non-empty predicate, preserving input
// order. The input slice is not modified.
func (f *FilterEngine) Apply(employees []models.Employee, filters models.EmployeeFilters) []models.Employee {
	search := strings.ToLower(strings.TrimSpace(filters.Search))
	visible := make([]models.Employee, 0, len(employees))
	for _, employee := range employees {
		if search != "" && !strings.Contains(searchText(employee), search) {
			continue
		}
		if filters.Department != "" && deref(employee.Department) != filters.Department {
			continue
		}
		if filters.Location != "" && deref(employee.Location) != filters.Location {
			continue
		}
		if filters.Status != "" && !matchStatus(employee.Status, filters.Status) {
			continue
		}
		if filters.IsAdmin != nil && employee.IsAdmin != *filters.IsAdmin {
			continue
		}
		visible = append(visible, employee)
	}
	return visible
}

// IDs returns employee ids in collection order.
func IDs(employees []models.Employee) []int64 {
	ids := make([]int64, len(employees))
	for i, employee := range employees {
		ids[i] = employee.ID
	}
	return ids
}

func searchText(employee models.Employee) string {
	return strings.ToLower(strings.Join([]string{
		employee.Name, deref(employee.Surname), employee.Email, employee.Username,
	}, " "))
}

func matchStatus(status *models.EmployeeStatus, want string) bool {
	if status == nil {
		return want == models.StatusUnknown
	}
	return string(*status) == want
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

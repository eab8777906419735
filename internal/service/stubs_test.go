package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/hr-engage-api/internal/models"
	"github.com/noah-isme/hr-engage-api/internal/repository"
)

var testActor = models.Actor{UserID: "admin-1", OrgID: "org-1", Role: models.RoleAdmin}

var errStoreDown = errors.New("store unavailable")

// employeeStoreStub is an in-memory store that counts calls and can be told
// to fail for specific emails or ids.
type employeeStoreStub struct {
	mu         sync.Mutex
	nextID     int64
	employees  []models.Employee
	listErr    error
	failEmails map[string]error
	failIDs    map[int64]error

	creates []models.EmployeeRecord
	updates map[int64]models.EmployeePatch
	deletes []int64
}

func newEmployeeStoreStub(employees ...models.Employee) *employeeStoreStub {
	s := &employeeStoreStub{
		nextID:     100,
		failEmails: map[string]error{},
		failIDs:    map[int64]error{},
		updates:    map[int64]models.EmployeePatch{},
	}
	s.employees = append(s.employees, employees...)
	return s
}

func (s *employeeStoreStub) GetEmployees(ctx context.Context, orgID string) ([]models.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]models.Employee(nil), s.employees...), nil
}

func (s *employeeStoreStub) FindEmployee(ctx context.Context, orgID string, id int64) (*models.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, employee := range s.employees {
		if employee.ID == id {
			found := employee
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *employeeStoreStub) CreateEmployee(ctx context.Context, orgID string, record models.EmployeeRecord) (*models.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates = append(s.creates, record)
	if err, ok := s.failEmails[record.Email]; ok {
		return nil, err
	}
	for _, employee := range s.employees {
		if employee.Email == record.Email {
			return nil, repository.ErrEmployeeExists
		}
	}
	s.nextID++
	employee := models.Employee{
		ID:         s.nextID,
		OrgID:      orgID,
		Name:       record.Name,
		Surname:    record.Surname,
		Email:      record.Email,
		Username:   record.Username,
		Department: record.Department,
		Location:   record.Location,
		Status:     record.Status,
		IsAdmin:    record.IsAdmin,
		CreatedAt:  time.Now(),
	}
	s.employees = append(s.employees, employee)
	return &employee, nil
}

func (s *employeeStoreStub) UpdateEmployee(ctx context.Context, orgID string, id int64, patch models.EmployeePatch) (*models.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates[id] = patch
	if err, ok := s.failIDs[id]; ok {
		return nil, err
	}
	for i := range s.employees {
		if s.employees[i].ID != id {
			continue
		}
		employee := &s.employees[i]
		if patch.Name != nil {
			employee.Name = *patch.Name
		}
		if patch.Department != nil {
			employee.Department = patch.Department
		}
		if patch.Location != nil {
			employee.Location = patch.Location
		}
		if patch.Status != nil {
			employee.Status = patch.Status
		}
		updated := *employee
		return &updated, nil
	}
	return nil, sql.ErrNoRows
}

func (s *employeeStoreStub) DeleteEmployee(ctx context.Context, orgID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, id)
	if err, ok := s.failIDs[id]; ok {
		return err
	}
	for i := range s.employees {
		if s.employees[i].ID == id {
			s.employees = append(s.employees[:i], s.employees[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *employeeStoreStub) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.creates) + len(s.updates) + len(s.deletes)
}

type departmentStoreStub struct {
	mu        sync.Mutex
	names     []string
	listErr   error
	createErr map[string]error
	created   []string
}

func (s *departmentStoreStub) GetDepartments(ctx context.Context, orgID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]string(nil), s.names...), nil
}

func (s *departmentStoreStub) CreateDepartment(ctx context.Context, orgID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, name)
	if err, ok := s.createErr[name]; ok {
		return err
	}
	for _, existing := range s.names {
		if existing == name {
			return repository.ErrDepartmentExists
		}
	}
	s.names = append(s.names, name)
	sort.Strings(s.names)
	return nil
}

func employee(id int64, name, email, department string, status models.EmployeeStatus) models.Employee {
	e := models.Employee{
		ID:       id,
		OrgID:    testActor.OrgID,
		Name:     name,
		Email:    email,
		Username: email,
	}
	if department != "" {
		e.Department = &department
	}
	if status != "" {
		e.Status = &status
	}
	return e
}

func candidate(row int, name, surname, email, department string) models.CandidateRow {
	return models.CandidateRow{Row: row, Name: name, Surname: surname, Email: email, Department: department}
}

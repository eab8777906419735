package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hr-engage-api/internal/models"
	appErrors "github.com/noah-isme/hr-engage-api/pkg/errors"
)

func TestImportExecutorScenarioB(t *testing.T) {
	employees := newEmployeeStoreStub()
	departments := &departmentStoreStub{names: []string{"Eng"}}
	report := NewImportAnalyzer(nil, nil).Analyze(scenarioBRows(), departments.names)

	result, err := NewImportExecutor(employees, departments, nil).Execute(context.Background(), report, testActor)
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 0, result.UpdateCount)
	assert.Equal(t, 1, result.DepartmentsCreated)
	assert.Empty(t, result.FailedRows)
	assert.Equal(t, []string{"Sales"}, departments.created)

	require.Len(t, employees.creates, 2)
	first := employees.creates[0]
	assert.Equal(t, "ann@x.com", first.Username)
	require.NotNil(t, first.Status)
	assert.Equal(t, models.EmployeeStatusActive, *first.Status)
}

func TestImportExecutorBlockedReportMakesNoCalls(t *testing.T) {
	employees := newEmployeeStoreStub()
	departments := &departmentStoreStub{}
	report := NewImportAnalyzer(nil, nil).Analyze([]models.RawRow{
		{"name": "Bo", "surname": "", "email": "bad-email", "department": "Sales"},
	}, nil)
	require.True(t, report.Validation.HasErrors)

	result, err := NewImportExecutor(employees, departments, nil).Execute(context.Background(), report, testActor)
	require.Error(t, err)
	assert.Nil(t, result)

	var execErr *ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, report.Validation.Errors, execErr.Errors)
	assert.True(t, errors.Is(err, appErrors.ErrImportBlocked))
	assert.Equal(t, 0, employees.calls())
	assert.Empty(t, departments.created)
}

func TestImportExecutorUpdatesExistingEmail(t *testing.T) {
	employees := newEmployeeStoreStub(employee(7, "Ann", "ann@x.com", "Eng", models.EmployeeStatusInactive))
	departments := &departmentStoreStub{names: []string{"Eng"}}
	report := &models.PreviewReport{
		Employees: []models.CandidateRow{
			candidate(1, "Annie", "Lee", "ANN@x.com", "Eng"),
			candidate(2, "Bo", "Kim", "bo@x.com", "Eng"),
		},
		EmployeeCount: 2,
	}

	result, err := NewImportExecutor(employees, departments, nil).Execute(context.Background(), report, testActor)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 1, result.UpdateCount)

	patch, ok := employees.updates[7]
	require.True(t, ok)
	require.NotNil(t, patch.Name)
	assert.Equal(t, "Annie", *patch.Name)
	assert.Nil(t, patch.Status, "imports never change status of existing employees")
	assert.Nil(t, patch.Location)
}

func TestImportExecutorExistingDepartmentIsNoop(t *testing.T) {
	employees := newEmployeeStoreStub()
	departments := &departmentStoreStub{names: []string{"Sales"}}
	report := &models.PreviewReport{
		Employees:      []models.CandidateRow{candidate(1, "Bo", "Kim", "bo@x.com", "Sales")},
		NewDepartments: []string{"Sales"},
		EmployeeCount:  1,
	}

	result, err := NewImportExecutor(employees, departments, nil).Execute(context.Background(), report, testActor)
	require.NoError(t, err)
	assert.Equal(t, 0, result.DepartmentsCreated)
	assert.Equal(t, 1, result.SuccessCount)
}

func TestImportExecutorSkipsFailingRows(t *testing.T) {
	employees := newEmployeeStoreStub()
	employees.failEmails["bo@x.com"] = errStoreDown
	departments := &departmentStoreStub{}
	report := &models.PreviewReport{
		Employees: []models.CandidateRow{
			candidate(1, "Ann", "Lee", "ann@x.com", "Eng"),
			candidate(2, "Bo", "Kim", "bo@x.com", "Eng"),
			candidate(3, "Cy", "Oh", "cy@x.com", "Eng"),
		},
		NewDepartments: []string{"Eng"},
		EmployeeCount:  3,
	}

	result, err := NewImportExecutor(employees, departments, nil).Execute(context.Background(), report, testActor)
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)
	require.Len(t, result.FailedRows, 1)
	assert.Equal(t, models.FailedRow{Row: 2, Email: "bo@x.com", Reason: errStoreDown.Error()}, result.FailedRows[0])
}

func TestImportExecutorCollapsesDuplicateEmails(t *testing.T) {
	employees := newEmployeeStoreStub()
	departments := &departmentStoreStub{names: []string{"Eng"}}
	report := &models.PreviewReport{
		Employees: []models.CandidateRow{
			candidate(1, "Ann", "Lee", "ann@x.com", "Eng"),
			candidate(2, "Bo", "Kim", "bo@x.com", "Eng"),
			candidate(3, "Annie", "Lee", "Ann@X.com", "Eng"),
		},
		EmployeeCount: 3,
	}

	result, err := NewImportExecutor(employees, departments, nil).Execute(context.Background(), report, testActor)
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.DuplicatesCollapsed)
	require.Len(t, employees.creates, 2)
	assert.Equal(t, "Annie", employees.creates[0].Name)
	assert.Equal(t, "Bo", employees.creates[1].Name)
}

func TestImportExecutorLoadFailure(t *testing.T) {
	employees := newEmployeeStoreStub()
	employees.listErr = errStoreDown
	report := &models.PreviewReport{Employees: []models.CandidateRow{candidate(1, "Ann", "Lee", "ann@x.com", "Eng")}}

	_, err := NewImportExecutor(employees, &departmentStoreStub{}, nil).Execute(context.Background(), report, testActor)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
	assert.Equal(t, 0, employees.calls())
}

func TestImportExecutorIgnoresCancellation(t *testing.T) {
	employees := newEmployeeStoreStub()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report := &models.PreviewReport{Employees: []models.CandidateRow{candidate(1, "Ann", "Lee", "ann@x.com", "Eng")}}

	result, err := NewImportExecutor(employees, &departmentStoreStub{}, nil).Execute(ctx, report, testActor)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
}

func TestImportExecutorCountBound(t *testing.T) {
	for _, n := range []int{0, 1, 5, 40} {
		t.Run(fmt.Sprintf("rows=%d", n), func(t *testing.T) {
			employees := newEmployeeStoreStub(employee(1, "Ex", "u0@x.com", "Eng", ""))
			employees.failEmails["u3@x.com"] = errStoreDown
			rows := make([]models.CandidateRow, n)
			for i := range rows {
				// every fourth row repeats an earlier email
				email := fmt.Sprintf("u%d@x.com", i)
				if i%4 == 3 {
					email = fmt.Sprintf("u%d@x.com", i-1)
				}
				rows[i] = candidate(i+1, "N", "S", email, "Eng")
			}
			report := &models.PreviewReport{Employees: rows, EmployeeCount: n}

			executor := NewImportExecutor(employees, &departmentStoreStub{names: []string{"Eng"}}, nil, WithExecutorConcurrency(4))
			result, err := executor.Execute(context.Background(), report, testActor)
			require.NoError(t, err)
			assert.LessOrEqual(t, result.SuccessCount+result.UpdateCount, n)
			assert.Equal(t, n, result.SuccessCount+result.UpdateCount+len(result.FailedRows)+result.DuplicatesCollapsed)
		})
	}
}

func TestImportExecutorRecordsMetrics(t *testing.T) {
	metrics := NewMetricsService()
	report := &models.PreviewReport{
		Employees:      []models.CandidateRow{candidate(1, "Ann", "Lee", "ann@x.com", "Eng")},
		NewDepartments: []string{"Eng"},
	}
	executor := NewImportExecutor(newEmployeeStoreStub(), &departmentStoreStub{}, nil, WithExecutorMetrics(metrics))
	_, err := executor.Execute(context.Background(), report, testActor)
	require.NoError(t, err)

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			if metric.GetCounter() != nil {
				values[family.GetName()] += metric.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, float64(1), values["import_rows_total"])
	assert.Equal(t, float64(1), values["import_departments_created_total"])
}

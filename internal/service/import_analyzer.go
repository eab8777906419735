package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/noah-isme/hr-engage-api/internal/models"
	"github.com/noah-isme/hr-engage-api/pkg/tabular"
)

var recognizedColumns = func() map[string]struct{} {
	set := make(map[string]struct{}, len(models.ImportColumns))
	for _, column := range models.ImportColumns {
		set[column] = struct{}{}
	}
	return set
}()

// MapRow converts a parsed row into a CandidateRow. position is the 1-based
// data row number. Header matching is exact; unknown columns are returned so
// the caller can report them.
func MapRow(position int, raw models.RawRow) (models.CandidateRow, []string) {
	field := func(column string) string {
		return strings.TrimSpace(raw[column])
	}
	row := models.CandidateRow{
		Row:         position,
		Name:        field(models.ColumnName),
		Surname:     field(models.ColumnSurname),
		Email:       field(models.ColumnEmail),
		Department:  field(models.ColumnDepartment),
		Location:    field(models.ColumnLocation),
		JobTitle:    field(models.ColumnJobTitle),
		PhoneNumber: field(models.ColumnPhoneNumber),
		BirthDate:   field(models.ColumnBirthDate),
		HireDate:    field(models.ColumnHireDate),
	}

	var unknown []string
	for column := range raw {
		if _, ok := recognizedColumns[column]; !ok {
			unknown = append(unknown, column)
		}
	}
	sort.Strings(unknown)
	return row, unknown
}

// ImportAnalyzer turns parsed rows into a PreviewReport. It never touches the
// store; existing departments are supplied by the caller.
type ImportAnalyzer struct {
	validator *RecordValidator
	resolver  *DepartmentResolver
}

// NewImportAnalyzer wires the analyzer collaborators.
func NewImportAnalyzer(validator *RecordValidator, resolver *DepartmentResolver) *ImportAnalyzer {
	if validator == nil {
		validator = NewRecordValidator(nil)
	}
	if resolver == nil {
		resolver = NewDepartmentResolver()
	}
	return &ImportAnalyzer{validator: validator, resolver: resolver}
}

// Analyze builds the preview. Validation problems are reported in the result
// rather than returned as an error.
func (a *ImportAnalyzer) Analyze(rows []models.RawRow, existingDepartments []string) *models.PreviewReport {
	report := &models.PreviewReport{
		Employees: make([]models.CandidateRow, 0, len(rows)),
		Validation: models.ValidationSummary{
			Errors:   []string{},
			Warnings: []string{},
		},
	}

	unknownColumns := make(map[string]struct{})
	departments := make([]string, 0, len(rows))
	for i, raw := range rows {
		row, unknown := MapRow(i+1, raw)
		for _, column := range unknown {
			unknownColumns[column] = struct{}{}
		}
		report.Employees = append(report.Employees, row)
		report.Validation.Errors = append(report.Validation.Errors, a.validator.Validate(row)...)
		report.Validation.Warnings = append(report.Validation.Warnings, dateWarnings(row)...)
		departments = append(departments, row.Department)
	}

	report.EmployeeCount = len(report.Employees)
	report.NewDepartments, report.ExistingDepartments = a.resolver.Resolve(departments, existingDepartments)

	if len(unknownColumns) > 0 {
		columns := make([]string, 0, len(unknownColumns))
		for column := range unknownColumns {
			columns = append(columns, column)
		}
		sort.Strings(columns)
		report.Validation.Warnings = append(report.Validation.Warnings,
			fmt.Sprintf("Unrecognized column(s) ignored: %s", strings.Join(columns, ", ")))
	}
	report.Validation.Warnings = append(report.Validation.Warnings, duplicateEmailWarnings(report.Employees)...)
	report.Validation.Warnings = append(report.Validation.Warnings, similarDepartmentWarnings(report.NewDepartments, existingDepartments)...)
	report.Validation.HasErrors = len(report.Validation.Errors) > 0
	return report
}

func dateWarnings(row models.CandidateRow) []string {
	var warnings []string
	for _, d := range []struct {
		column string
		value  string
	}{
		{models.ColumnBirthDate, row.BirthDate},
		{models.ColumnHireDate, row.HireDate},
	} {
		if d.value == "" {
			continue
		}
		if _, err := tabular.ParseDate(d.value); err != nil {
			warnings = append(warnings, fmt.Sprintf("Row %d: %s %q is not a recognized date and will be ignored", row.Row, d.column, d.value))
		}
	}
	return warnings
}

func duplicateEmailWarnings(rows []models.CandidateRow) []string {
	positions := make(map[string][]int)
	var order []string
	for _, row := range rows {
		key := emailKey(row.Email)
		if key == "" {
			continue
		}
		if _, ok := positions[key]; !ok {
			order = append(order, key)
		}
		positions[key] = append(positions[key], row.Row)
	}

	var warnings []string
	for _, key := range order {
		rowsForEmail := positions[key]
		if len(rowsForEmail) < 2 {
			continue
		}
		labels := make([]string, len(rowsForEmail))
		for i, n := range rowsForEmail {
			labels[i] = fmt.Sprint(n)
		}
		warnings = append(warnings, fmt.Sprintf("Duplicate email %s in rows %s; row %d will be used",
			key, strings.Join(labels, ", "), rowsForEmail[len(rowsForEmail)-1]))
	}
	return warnings
}

func similarDepartmentWarnings(newDepartments, existing []string) []string {
	if len(existing) == 0 {
		return nil
	}
	var warnings []string
	for _, name := range newDepartments {
		ranks := fuzzy.RankFindNormalizedFold(name, existing)
		for _, target := range existing {
			if fuzzy.MatchNormalizedFold(target, name) {
				ranks = append(ranks, fuzzy.Rank{Source: target, Target: target, Distance: len(name) - len(target)})
			}
		}
		if len(ranks) == 0 {
			continue
		}
		sort.Sort(ranks)
		warnings = append(warnings, fmt.Sprintf("New department %q looks similar to existing department %q", name, ranks[0].Target))
	}
	return warnings
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

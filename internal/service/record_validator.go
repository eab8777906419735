package service

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/hr-engage-api/internal/models"
)

// RecordValidator checks a single candidate row for required fields and a
// usable email address.
type RecordValidator struct {
	validator *validator.Validate
}

// NewRecordValidator constructs a RecordValidator.
func NewRecordValidator(validate *validator.Validate) *RecordValidator {
	if validate == nil {
		validate = validator.New()
	}
	return &RecordValidator{validator: validate}
}

// Validate returns at most one message per row. The message names the row
// position and every failing field.
func (v *RecordValidator) Validate(row models.CandidateRow) []string {
	var missing []string
	required := []struct {
		field string
		value string
	}{
		{models.ColumnName, row.Name},
		{models.ColumnSurname, row.Surname},
		{models.ColumnEmail, row.Email},
		{models.ColumnDepartment, row.Department},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.field)
		}
	}

	var problems []string
	if len(missing) > 0 {
		problems = append(problems, "missing required field(s): "+strings.Join(missing, ", "))
	}
	email := strings.TrimSpace(row.Email)
	if email != "" && !v.validEmail(email) {
		problems = append(problems, "invalid email: "+email)
	}
	if len(problems) == 0 {
		return nil
	}
	return []string{fmt.Sprintf("Row %d: %s", row.Row, strings.Join(problems, "; "))}
}

func (v *RecordValidator) validEmail(email string) bool {
	return v.validator.Var(email, "required,email") == nil
}

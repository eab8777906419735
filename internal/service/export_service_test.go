package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/hr-engage-api/internal/models"
	appErrors "github.com/noah-isme/hr-engage-api/pkg/errors"
)

func newExportService(store *employeeStoreStub) *ExportService {
	svc := NewExportService(store, nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) }
	return svc
}

func TestExportServiceCSV(t *testing.T) {
	hired := time.Date(2020, 2, 3, 0, 0, 0, 0, time.UTC)
	people := directory()
	people[1].HireDate = &hired
	svc := newExportService(newEmployeeStoreStub(people...))

	file, err := svc.ExportEmployees(context.Background(), testActor, []int64{3, 2, 42}, "")
	require.NoError(t, err)
	assert.Equal(t, "employees_20240506_070809.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)

	records, err := csv.NewReader(bytes.NewReader(file.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, append(append([]string(nil), models.ImportColumns...), "status"), records[0])
	assert.Equal(t, "Bo", records[1][0])
	assert.Equal(t, "2020-02-03", records[1][8])
	assert.Equal(t, "inactive", records[1][9])
	assert.Equal(t, "Cy", records[2][0])
	assert.Equal(t, models.StatusUnknown, records[2][9])
}

func TestExportServiceXLSX(t *testing.T) {
	svc := newExportService(newEmployeeStoreStub(directory()...))
	file, err := svc.ExportEmployees(context.Background(), testActor, []int64{1}, "XLSX")
	require.NoError(t, err)
	assert.Equal(t, "employees_20240506_070809.xlsx", file.Filename)

	book, err := excelize.OpenReader(bytes.NewReader(file.Data))
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows(book.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "ann@x.com", rows[1][2])
}

func TestExportServicePDF(t *testing.T) {
	svc := newExportService(newEmployeeStoreStub(directory()...))
	file, err := svc.ExportEmployees(context.Background(), testActor, []int64{1, 2}, "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Data, []byte("%PDF")))
}

func TestExportServiceErrors(t *testing.T) {
	store := newEmployeeStoreStub(directory()...)
	svc := newExportService(store)

	_, err := svc.ExportEmployees(context.Background(), testActor, []int64{1}, "docx")
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	store.listErr = errStoreDown
	_, err = svc.ExportEmployees(context.Background(), testActor, []int64{1}, "csv")
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}

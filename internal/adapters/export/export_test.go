package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/phenrril/customerdesk/internal/domain"
)

var exportDay = time.Date(2025, 3, 9, 22, 15, 0, 0, time.UTC)

func acme() domain.Customer {
	return domain.Customer{ID: 1, CustomerID: "CUST-001", CompanyName: "Acme, Inc.", Address: "1 Rd", ContactNo: "555", Username: "bob", UserID: 1}
}

func TestCSV(t *testing.T) {
	a, err := CSV([]domain.Customer{acme()}, exportDay)
	require.NoError(t, err)

	lines := strings.Split(string(a.Data), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Customer ID,Company Name,Address,Contact Number,Added By (Username),User ID", lines[0])
	assert.Equal(t, `"CUST-001","Acme, Inc.","1 Rd","555","bob",1`, lines[1])
	assert.Equal(t, "customers_2025-03-09.csv", a.Filename)
	assert.Equal(t, "text/csv;charset=utf-8", a.ContentType)
}

func TestCSV_Empty(t *testing.T) {
	a, err := CSV(nil, exportDay)
	assert.ErrorIs(t, err, ErrNothingToExport)
	assert.Empty(t, a.Data)
	assert.Empty(t, a.Filename)

	_, err = CSV([]domain.Customer{}, exportDay)
	assert.ErrorIs(t, err, ErrNothingToExport)
}

func TestCSV_EscapesQuotes(t *testing.T) {
	c := acme()
	c.CompanyName = `The "Best" Co`
	a, err := CSV([]domain.Customer{c}, exportDay)
	require.NoError(t, err)
	lines := strings.Split(string(a.Data), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `"CUST-001","The ""Best"" Co","1 Rd","555","bob",1`, lines[1])
}

func TestCSV_KeepsOrder(t *testing.T) {
	b := acme()
	b.ID, b.CustomerID, b.UserID = 2, "CUST-002", 3
	a, err := CSV([]domain.Customer{b, acme()}, exportDay)
	require.NoError(t, err)
	lines := strings.Split(string(a.Data), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], `"CUST-002"`))
	assert.True(t, strings.HasSuffix(lines[1], ",3"))
	assert.True(t, strings.HasPrefix(lines[2], `"CUST-001"`))
}

func TestCSV_DateIsUTC(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*60*60)
	a, err := CSV([]domain.Customer{acme()}, time.Date(2025, 3, 9, 22, 0, 0, 0, loc))
	require.NoError(t, err)
	assert.Equal(t, "customers_2025-03-10.csv", a.Filename)
}

func TestXLSX(t *testing.T) {
	a, err := XLSX([]domain.Customer{acme()}, exportDay)
	require.NoError(t, err)
	assert.Equal(t, "customers_2025-03-09.xlsx", a.Filename)

	f, err := excelize.OpenReader(bytes.NewReader(a.Data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, []string{"CUST-001", "Acme, Inc.", "1 Rd", "555", "bob", "1"}, rows[1])
}

func TestXLSX_Empty(t *testing.T) {
	_, err := XLSX(nil, exportDay)
	assert.ErrorIs(t, err, ErrNothingToExport)
}

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	a, err := CSV([]domain.Customer{acme()}, exportDay)
	require.NoError(t, err)

	path, err := Save(dir, a)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "customers_2025-03-09.csv"), path)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, a.Data, got)

	_, err = Save(dir, Artifact{})
	assert.Error(t, err)
}

package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/rl1809/material-scanner/internal/core/domain"
)

func TestWrite_RowsInInventoryOrder(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	scanned := time.Date(2024, 3, 18, 8, 30, 15, 0, time.UTC)
	items := []domain.Material{
		{ID: "1", Code: "ABC123", Name: "Matériel ABC123", ScannedAt: scanned},
		{ID: "2", Code: "XYZ789", Name: "Matériel XYZ789", ScannedAt: scanned.Add(time.Minute)},
	}

	var buf bytes.Buffer
	require.NoError(t, NewXLSXExporter(paris).Write(&buf, items))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"#", "Code", "Name", "Scanned at"}, rows[0])
	assert.Equal(t, []string{"1", "ABC123", "Matériel ABC123", "18/03/2024 09:30:15"}, rows[1])
	assert.Equal(t, []string{"2", "XYZ789", "Matériel XYZ789", "18/03/2024 09:31:15"}, rows[2])
}

func TestWrite_EmptyInventory(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewXLSXExporter(nil).Write(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

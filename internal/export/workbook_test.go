package export

import (
	"bytes"
	"strings"
	"testing"

	"shipdash/internal/chart"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteWorkbook(t *testing.T) {
	csvData := "date_orders,delivery_status,order_profit_per_order\n2021-01-04,Late delivery,12\n2021-01-05,Shipping on time,250.5\n"
	charts := []chart.Snapshot{
		{ChartSpec: chart.ChartSpec{
			ID: "profitBox", Target: "profitBoxChart", Kind: chart.KindBar,
			Labels: []string{"Late delivery", "Shipping on time"},
			Series: []chart.Series{{Name: "Median Profit", Data: []float64{12, 250.5}}},
		}, Revision: 1},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, strings.NewReader(csvData), charts))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{RecordsSheet, "profitBox"}, f.GetSheetList())

	rows, err := f.GetRows(RecordsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"date_orders", "delivery_status", "order_profit_per_order"}, rows[0])
	assert.Equal(t, "Late delivery", rows[1][1])

	cellType, err := f.GetCellType(RecordsSheet, "C3")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, cellType, "numeric cells must not be stored as text")

	chartRows, err := f.GetRows("profitBox")
	require.NoError(t, err)
	require.Len(t, chartRows, 3)
	assert.Equal(t, []string{"label", "Median Profit"}, chartRows[0])
	assert.Equal(t, []string{"Shipping on time", "250.5"}, chartRows[2])
}

func TestWriteWorkbook_MalformedCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteWorkbook(&buf, strings.NewReader("a,b\"c\n"), nil)
	assert.Error(t, err)
}

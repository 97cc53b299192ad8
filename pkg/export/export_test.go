package export

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset(rows int) Dataset {
	data := Dataset{Title: "Course Attendance", Headers: []string{"Course", "Attendance (%)"}}
	for i := 0; i < rows; i++ {
		data.Rows = append(data.Rows, map[string]string{
			"Course":         fmt.Sprintf("Course %d", i),
			"Attendance (%)": fmt.Sprintf("%d", i%101),
		})
	}
	return data
}

func TestCSVExporterOrdersColumnsByHeader(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset(2))
	require.NoError(t, err)
	assert.Equal(t, "Course,Attendance (%)\nCourse 0,0\nCourse 1,1\n", string(out))
}

func TestExportersRequireHeaders(t *testing.T) {
	for _, format := range []string{"csv", "pdf", "xlsx"} {
		r, err := ForFormat(format)
		require.NoError(t, err)
		_, err = r.Render(Dataset{})
		assert.Error(t, err, format)
	}
	_, err := ForFormat("docx")
	assert.Error(t, err)
}

func TestPDFExporterPaginates(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset(120))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	empty, err := NewPDFExporter().Render(Dataset{Headers: []string{"Date"}})
	require.NoError(t, err)
	assert.NotEmpty(t, empty)
}

func TestXLSXExporterWritesNumbers(t *testing.T) {
	out, err := NewXLSXExporter().Render(sampleDataset(3))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	title, err := f.GetCellValue(sheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Course Attendance", title)

	header, err := f.GetCellValue(sheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "Attendance (%)", header)

	value, err := f.GetCellValue(sheet, "B6")
	require.NoError(t, err)
	assert.Equal(t, "2", value)
}

func TestRendererMetadata(t *testing.T) {
	assert.Equal(t, "text/csv", NewCSVExporter().ContentType())
	assert.Equal(t, "pdf", NewPDFExporter().Extension())
	assert.Contains(t, NewXLSXExporter().ContentType(), "spreadsheetml")
}

package export

import "fmt"

// Dataset defines tabular export content. Rows are keyed by header.
type Dataset struct {
	Title   string
	Headers []string
	Rows    []map[string]string
}

// Record returns row i ordered by Headers.
func (d Dataset) Record(i int) []string {
	record := make([]string, len(d.Headers))
	for j, header := range d.Headers {
		record[j] = d.Rows[i][header]
	}
	return record
}

func (d Dataset) validate(format string) error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("%s requires at least one header", format)
	}
	return nil
}

// Renderer turns a dataset into a downloadable file.
type Renderer interface {
	Render(data Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// ForFormat returns the renderer registered for a file extension.
func ForFormat(format string) (Renderer, error) {
	switch format {
	case "csv":
		return NewCSVExporter(), nil
	case "pdf":
		return NewPDFExporter(), nil
	case "xlsx":
		return NewXLSXExporter(), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

package swagger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestRegisteredDocIsValidJSON(t *testing.T) {
	raw, err := swag.ReadDoc()
	require.NoError(t, err)

	var doc struct {
		BasePath string                     `json:"basePath"`
		Paths    map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	assert.Equal(t, "/api", doc.BasePath)
	assert.Contains(t, doc.Paths, "/attendance/recognize")
	assert.Contains(t, doc.Paths, "/reports/date-range")
}

func TestAlertsSummaryDescribesThresholds(t *testing.T) {
	raw, err := swag.ReadDoc()
	require.NoError(t, err)

	var doc struct {
		Paths map[string]map[string]struct {
			Summary string `json:"summary"`
		} `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	summary := doc.Paths["/reports/alerts"]["get"].Summary
	assert.Contains(t, summary, "weekly threshold")
	assert.NotContains(t, summary, "late")
}

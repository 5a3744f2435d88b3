package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	exporter := NewCSVExporter()
	data := Dataset{
		Headers: []string{"Title", "Category", "Avg Rating"},
		Rows: []map[string]string{
			{"Title": "Intro to Algorithms", "Category": "textbooks", "Avg Rating": "4.7"},
			{"Title": "Linear Algebra Notes", "Category": "lecture-notes", "Avg Rating": "0"},
		},
	}

	out, err := exporter.Render(data)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Title,Category,Avg Rating", lines[0])
	assert.Contains(t, lines[1], "Intro to Algorithms")
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	exporter := NewCSVExporter()
	_, err := exporter.Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	exporter := NewPDFExporter()
	data := Dataset{
		Headers: []string{"Title", "One-Star Count", "Red Flag"},
		Rows: []map[string]string{
			{"Title": "Intro to Algorithms", "One-Star Count": "12", "Red Flag": "yes"},
		},
	}

	out, err := exporter.Render(data, "Library Snapshot")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "%PDF"))
}

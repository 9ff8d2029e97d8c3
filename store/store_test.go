package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Jerold2105/websentry-ai/report"
	"github.com/Jerold2105/websentry-ai/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReport(scanID string) *report.Report {
	return report.Assemble("https://example.com", "Example", rules.HeaderMap{"server": "nginx"},
		[]rules.Finding{{Title: "Server version disclosure", Severity: rules.SeverityLow}},
		"Summary.", report.Options{
			ScanID:            scanID,
			HeaderSampleLimit: 25,
			ScannedAt:         time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC),
		})
}

func TestSave_WritesBothArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	s := New(dir)

	artifacts, err := s.Save(testReport("abcdef12-3456"))

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "report-20260826-120000-abcdef12.json"), artifacts.JSONPath)
	assert.Equal(t, filepath.Join(dir, "report-20260826-120000-abcdef12.html"), artifacts.HTMLPath)

	jsonData, err := os.ReadFile(artifacts.JSONPath)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(jsonData, &decoded))
	assert.Equal(t, "https://example.com", decoded["url"])

	htmlData, err := os.ReadFile(artifacts.HTMLPath)
	require.NoError(t, err)
	assert.Contains(t, string(htmlData), "Server version disclosure")
}

func TestSave_UniquePerScan(t *testing.T) {
	s := New(t.TempDir())

	a1, err := s.Save(testReport("11111111-aaaa"))
	require.NoError(t, err)
	a2, err := s.Save(testReport("22222222-bbbb"))
	require.NoError(t, err)

	assert.NotEqual(t, a1.JSONPath, a2.JSONPath)
	assert.NotEqual(t, a1.HTMLPath, a2.HTMLPath)
}

func TestSave_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "reports")
	s := New(dir)

	_, err := s.Save(testReport("id"))

	require.NoError(t, err)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

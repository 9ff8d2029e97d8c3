// Package store persists scan reports as JSON and HTML artifacts on disk.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Jerold2105/websentry-ai/report"
)

// Artifacts names the files written for one scan.
type Artifacts struct {
	JSONPath string
	HTMLPath string
}

// Store writes report artifacts into a single directory.
type Store struct {
	dir string
}

// New creates a store rooted at dir. The directory is created on first save.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the artifact directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes the JSON and HTML artifacts for the report. File names
// combine the scan timestamp with the scan ID so concurrent scans never
// collide. Saving happens only after the report is fully assembled.
func (s *Store) Save(r *report.Report) (Artifacts, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return Artifacts{}, fmt.Errorf("create reports directory: %w", err)
	}

	base := artifactBase(r)
	artifacts := Artifacts{
		JSONPath: filepath.Join(s.dir, base+".json"),
		HTMLPath: filepath.Join(s.dir, base+".html"),
	}

	jsonFile, err := os.Create(artifacts.JSONPath)
	if err != nil {
		return Artifacts{}, fmt.Errorf("create JSON artifact: %w", err)
	}
	defer jsonFile.Close()
	if err := r.WriteJSON(jsonFile); err != nil {
		return Artifacts{}, fmt.Errorf("write JSON artifact: %w", err)
	}

	htmlFile, err := os.Create(artifacts.HTMLPath)
	if err != nil {
		return Artifacts{}, fmt.Errorf("create HTML artifact: %w", err)
	}
	defer htmlFile.Close()
	if err := report.RenderHTML(htmlFile, r); err != nil {
		return Artifacts{}, fmt.Errorf("write HTML artifact: %w", err)
	}

	return artifacts, nil
}

// artifactBase derives the shared file stem for a report's artifacts.
func artifactBase(r *report.Report) string {
	ts := time.Now().UTC().Format("20060102-150405")
	if t, err := time.Parse(time.RFC3339, r.Meta.ScannedAt); err == nil {
		ts = t.UTC().Format("20060102-150405")
	}

	id := r.Meta.ScanID
	if len(id) > 8 {
		id = id[:8]
	}
	if id == "" {
		return fmt.Sprintf("report-%s", ts)
	}
	return fmt.Sprintf("report-%s-%s", ts, id)
}

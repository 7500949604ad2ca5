package report

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/user/reach-plots-go/internal/models"
)

//go:embed templates/index.html.tmpl
var templateFS embed.FS

// ReportAdapter defines the interface for writing a run manifest in
// different formats.
type ReportAdapter interface {
	PrepareData(manifest *models.RunManifest) error
	Write(outputFilePath string) error
}

// --- JSON Report Adapter ---

// JSONReportAdapter writes the manifest as indented JSON.
type JSONReportAdapter struct {
	reportData []byte
}

// PrepareData marshals the manifest.
func (jra *JSONReportAdapter) PrepareData(manifest *models.RunManifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest to JSON: %w", err)
	}
	jra.reportData = data
	return nil
}

// Write saves the JSON manifest to outputFilePath.
func (jra *JSONReportAdapter) Write(outputFilePath string) error {
	return writeFile(outputFilePath, jra.reportData)
}

// --- HTML Report Adapter ---

// HTMLReportAdapter writes an index page showing every saved image.
type HTMLReportAdapter struct {
	reportBuf bytes.Buffer
	// ImagesRoot is where the index is written; image links are relative to it.
	ImagesRoot string
}

type indexEntry struct {
	Image    string
	Artifact models.Artifact
}

var funcMap = template.FuncMap{
	"FormatDateTime": func(t time.Time) string {
		return t.Format("2006-01-02 15:04:05 MST")
	},
	"ShortSha": func(sha string) string {
		if len(sha) > 8 {
			return sha[:8]
		}
		return sha
	},
	"Caption": func(title string) string {
		return strings.ReplaceAll(title, "<br>", " ")
	},
}

// PrepareData renders the index. Interactive artifacts have no image and are
// left out.
func (hra *HTMLReportAdapter) PrepareData(manifest *models.RunManifest) error {
	var entries []indexEntry
	for _, a := range manifest.Artifacts {
		if a.OutputPath == "" {
			continue
		}
		img := a.OutputPath
		if rel, err := filepath.Rel(hra.ImagesRoot, a.OutputPath); err == nil {
			img = filepath.ToSlash(rel)
		}
		entries = append(entries, indexEntry{Image: img, Artifact: a})
	}

	tmpl, err := template.New("index.html.tmpl").Funcs(funcMap).ParseFS(templateFS, "templates/index.html.tmpl")
	if err != nil {
		return fmt.Errorf("failed to parse HTML template: %w", err)
	}

	templateData := struct {
		Manifest *models.RunManifest
		Images   []indexEntry
	}{
		Manifest: manifest,
		Images:   entries,
	}

	hra.reportBuf.Reset()
	if err := tmpl.Execute(&hra.reportBuf, templateData); err != nil {
		return fmt.Errorf("failed to execute HTML template: %w", err)
	}
	return nil
}

// Write saves the HTML index to outputFilePath.
func (hra *HTMLReportAdapter) Write(outputFilePath string) error {
	return writeFile(outputFilePath, hra.reportBuf.Bytes())
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for report file %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report file %s: %w", path, err)
	}
	return nil
}

// WriteAll writes manifest.json and index.html into imagesRoot and returns
// their paths.
func WriteAll(manifest *models.RunManifest, imagesRoot string) ([]string, error) {
	outputs := []struct {
		name    string
		adapter ReportAdapter
	}{
		{"manifest.json", &JSONReportAdapter{}},
		{"index.html", &HTMLReportAdapter{ImagesRoot: imagesRoot}},
	}

	var written []string
	for _, o := range outputs {
		path := filepath.Join(imagesRoot, o.name)
		if err := o.adapter.PrepareData(manifest); err != nil {
			return written, err
		}
		if err := o.adapter.Write(path); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

package dollygrip

import (
	_ "embed"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"
)

//go:embed html_templates/take_report.html
var takeReportTemplate string

// TakeReport represents one interpolation/playback session for the editors:
// what was shot, how long it ran, and how it looked.
type TakeReport struct {
	TakeName      string            `json:"takeName"`
	Timestamp     string            `json:"timestamp"`
	Duration      time.Duration     `json:"duration"`
	Success       bool              `json:"success"`
	KeyFrameCount int               `json:"keyFrameCount"`
	SampleCount   int               `json:"sampleCount"`
	FrameRate     int               `json:"frameRate"`
	Speed         float32           `json:"speed"`
	Metadata      map[string]string `json:"metadata"`
	PlotDataURL   template.URL      `json:"-"` // Base64 data URL of the path plot
}

// MetadataJSON renders the report's machine-readable block embedded in the
// HTML, so tooling can scrape reports without parsing markup.
func (r TakeReport) MetadataJSON() (template.JS, error) {
	data, err := json.MarshalIndent(struct {
		TakeName    string `json:"takeName"`
		Duration    string `json:"duration"`
		FrameCount  int    `json:"frameCount"`
		SampleCount int    `json:"sampleCount"`
		Timestamp   string `json:"timestamp"`
		Success     bool   `json:"success"`
		ReportType  string `json:"reportType"`
	}{
		TakeName:    r.TakeName,
		Duration:    r.Duration.String(),
		FrameCount:  r.KeyFrameCount,
		SampleCount: r.SampleCount,
		Timestamp:   r.Timestamp,
		Success:     r.Success,
		ReportType:  "take",
	}, "", "  ")
	if err != nil {
		return "", err
	}
	return template.JS(data), nil
}

// ReportGenerator creates HTML take reports.
type ReportGenerator struct {
	outputDir     string
	templateCache map[string]*template.Template
}

// NewReportGenerator creates a report generator writing under outputDir.
func NewReportGenerator(outputDir string) *ReportGenerator {
	return &ReportGenerator{
		outputDir:     outputDir,
		templateCache: make(map[string]*template.Template),
	}
}

// GenerateReport writes the take report as index.html under the output
// directory.
func (g *ReportGenerator) GenerateReport(report TakeReport) error {
	if err := os.MkdirAll(g.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmpl := g.getTakeTemplate()

	reportPath := filepath.Join(g.outputDir, "index.html")
	file, err := os.Create(reportPath)
	if err != nil {
		return err
	}
	defer file.Close()

	return tmpl.Execute(file, report)
}

func (g *ReportGenerator) getTakeTemplate() *template.Template {
	if tmpl, exists := g.templateCache["take"]; exists {
		return tmpl
	}

	tmpl := template.Must(template.New("take").Parse(takeReportTemplate))
	g.templateCache["take"] = tmpl
	return tmpl
}

// PlotDataURL reads a PNG plot and converts it to a base64 data URL for
// embedding directly in the report.
func PlotDataURL(imagePath string) (template.URL, error) {
	imageBytes, err := os.ReadFile(imagePath)
	if err != nil {
		return "", err
	}

	encoded := base64.StdEncoding.EncodeToString(imageBytes)
	return template.URL("data:image/png;base64," + encoded), nil
}

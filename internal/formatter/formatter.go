// package formatter renders projects and their videos to export formats (JSON, CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/ivx/internal/models"
	"github.com/desertthunder/ivx/internal/shared"
)

const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
)

// Formats lists the accepted export formats.
var Formats = []string{FormatJSON, FormatCSV, FormatMarkdown, FormatText}

// FormatDuration renders seconds as m:ss, or h:mm:ss past an hour.
func FormatDuration(seconds float64) string {
	total := int(seconds + 0.5)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// FormatSize renders a byte count with a binary unit.
func FormatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// ExportToCSV converts a project's videos to CSV with columns: ID, Filename, Duration, Size, Added
func ExportToCSV(p *models.ProjectDetail) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Filename", "Duration", "Size", "Added"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, v := range p.VideoFiles {
		record := []string{
			strconv.Itoa(v.ID),
			v.Filename,
			strconv.FormatFloat(v.Duration, 'f', -1, 64),
			strconv.FormatInt(v.FileSize, 10),
			v.AddedAt,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a project to a Markdown document with a video table.
func ExportToMarkdown(p *models.ProjectDetail) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", p.Title)
	if p.Description != "" {
		fmt.Fprintf(&buf, "**Description**: %s\n\n", p.Description)
	}
	fmt.Fprintf(&buf, "**Project**: %d\n", p.ProjectID)
	fmt.Fprintf(&buf, "**Videos**: %d\n", len(p.VideoFiles))
	if p.UpdatedAt != "" {
		fmt.Fprintf(&buf, "**Updated**: %s\n", p.UpdatedAt)
	}
	buf.WriteString("\n## Videos\n\n")

	if len(p.VideoFiles) == 0 {
		buf.WriteString("_No videos yet._\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("| # | File | Duration | Size |\n|---|------|----------|------|\n")
	for i, v := range p.VideoFiles {
		name := strings.ReplaceAll(v.Filename, "|", `\|`)
		fmt.Fprintf(&buf, "| %d | %s | %s | %s |\n", i+1, name, FormatDuration(v.Duration), FormatSize(v.FileSize))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a project to plain text.
func ExportToText(p *models.ProjectDetail) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Project: %s (#%d)\n", p.Title, p.ProjectID)
	if p.Description != "" {
		fmt.Fprintf(&buf, "Description: %s\n", p.Description)
	}
	fmt.Fprintf(&buf, "Videos: %d\n\n", len(p.VideoFiles))

	for i, v := range p.VideoFiles {
		fmt.Fprintf(&buf, "%d. %s [%s, %s]\n", i+1, v.Filename, FormatDuration(v.Duration), FormatSize(v.FileSize))
	}

	return buf.Bytes(), nil
}

// Render dispatches on format.
func Render(p *models.ProjectDetail, format string) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		return shared.MarshalJSON(p, true)
	case FormatCSV:
		return ExportToCSV(p)
	case FormatMarkdown, "md":
		return ExportToMarkdown(p)
	case FormatText, "text":
		return ExportToText(p)
	default:
		return nil, fmt.Errorf("%w: unknown format %q (want one of %s)", shared.ErrInvalidArgument, format, strings.Join(Formats, ", "))
	}
}

// projectMetadata is the project without its videos, written beside CSV exports.
type projectMetadata struct {
	ProjectID   int    `json:"project_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	VideoCount  int    `json:"video_count"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// ToMetadataJSON generates a JSON representation of project metadata (without videos)
func ToMetadataJSON(p *models.ProjectDetail) ([]byte, error) {
	return shared.MarshalJSON(projectMetadata{
		ProjectID:   p.ProjectID,
		Title:       p.Title,
		Description: p.Description,
		VideoCount:  len(p.VideoFiles),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}, true)
}

// WriteProjectExport renders p in format under outputDir and returns the files written.
//
// CSV exports produce project_{id}_videos.csv and project_{id}_metadata.json; Markdown exports produce
// project_{id}/README.md; the rest produce a single project_{id}.{ext}.
func WriteProjectExport(p *models.ProjectDetail, format, outputDir string) ([]string, error) {
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	base := filepath.Join(outputDir, fmt.Sprintf("project_%d", p.ProjectID))

	switch format {
	case FormatCSV:
		data, err := ExportToCSV(p)
		if err != nil {
			return nil, err
		}
		meta, err := ToMetadataJSON(p)
		if err != nil {
			return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
		}
		files := []string{base + "_videos.csv", base + "_metadata.json"}
		if err := writeFiles(files, data, meta); err != nil {
			return nil, err
		}
		return files, nil

	case FormatMarkdown, "md":
		if err := os.MkdirAll(base, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		data, err := ExportToMarkdown(p)
		if err != nil {
			return nil, err
		}
		file := filepath.Join(base, "README.md")
		return []string{file}, writeFiles([]string{file}, data)

	case FormatText, "text":
		data, err := ExportToText(p)
		if err != nil {
			return nil, err
		}
		file := base + ".txt"
		return []string{file}, writeFiles([]string{file}, data)

	default:
		data, err := Render(p, format)
		if err != nil {
			return nil, err
		}
		file := base + ".json"
		return []string{file}, writeFiles([]string{file}, data)
	}
}

// WriteManifest writes v as indented JSON to path.
func WriteManifest(v any, path string) error {
	data, err := shared.MarshalJSON(v, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create manifest directory: %w", err)
		}
	}
	return writeFiles([]string{path}, data)
}

func writeFiles(paths []string, contents ...[]byte) error {
	for i, path := range paths {
		if err := os.WriteFile(path, contents[i], 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
		}
	}
	return nil
}

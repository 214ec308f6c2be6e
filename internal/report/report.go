// Package report formats extraction results and writes them as documents.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jwulff/scribe/internal/extract"
)

// Renderer turns a report body into a document and returns its path.
type Renderer interface {
	Render(patientName, body string) (string, error)
}

// Body lays out a result as the plain-text conclusion.
func Body(r *extract.Result) string {
	var parts []string

	if r.Doctor.Name != "" || r.Doctor.Specialization != "" {
		parts = append(parts, "Врач: "+r.Doctor.Name)
		parts = append(parts, "Специализация: "+r.Doctor.Specialization+"\n")
	}

	section := func(title string, items []string) {
		parts = append(parts, title+":")
		for _, it := range items {
			parts = append(parts, "- "+it)
		}
		parts = append(parts, "")
	}
	section("Жалобы", r.Complaints)
	section("Предварительный диагноз", r.ProvisionalDiagnosis)
	section("Рекомендации", r.Recommendations)

	return strings.TrimRight(strings.Join(parts, "\n"), "\n")
}

// MarkdownWriter renders reports as Markdown files in a directory.
type MarkdownWriter struct {
	Dir string
	Now func() time.Time
}

// NewMarkdownWriter writes reports into dir.
func NewMarkdownWriter(dir string) *MarkdownWriter {
	return &MarkdownWriter{Dir: dir, Now: time.Now}
}

// FileName is <patient with underscores>_<DD_MM_YYYY>.md.
func FileName(patientName string, t time.Time) string {
	safe := strings.ReplaceAll(strings.TrimSpace(patientName), " ", "_")
	safe = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, safe)
	return fmt.Sprintf("%s_%s.md", safe, t.Format("02_01_2006"))
}

// Render writes the conclusion document and returns its path.
func (w *MarkdownWriter) Render(patientName, body string) (string, error) {
	now := w.Now()

	var b strings.Builder
	b.WriteString("# Медицинское заключение\n\n")
	fmt.Fprintf(&b, "Пациент: %s\n\n", patientName)
	fmt.Fprintf(&b, "Дата: %s\n\n", now.Format("02.01.2006"))
	b.WriteString("---\n\n")
	b.WriteString(body)
	b.WriteString("\n")

	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(w.Dir, FileName(patientName, now))
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

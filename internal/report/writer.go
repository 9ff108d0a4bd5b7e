package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/fatih/color"

	"github.com/at-ishikawa/apijudge/internal/pdf"
)

const (
	FormatConsole  = "console"
	FormatMarkdown = "markdown"
	FormatPDF      = "pdf"
	FormatJSON     = "json"
)

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// FileName is the base name, without extension, of the files written for run.
func FileName(run Run) string {
	name := strings.Trim(unsafeFileChars.ReplaceAllString(strings.ToLower(run.SuiteName), "-"), "-")
	if name == "" {
		name = "run"
	}
	id := run.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s-%s-%s", name, run.StartedAt.UTC().Format("20060102-150405"), id)
}

type ConsoleWriter struct {
	output io.Writer
	green  *color.Color
	red    *color.Color
	yellow *color.Color
	bold   *color.Color
}

func NewConsoleWriter(output io.Writer) *ConsoleWriter {
	return &ConsoleWriter{
		output: output,
		green:  color.New(color.FgGreen),
		red:    color.New(color.FgRed),
		yellow: color.New(color.FgYellow),
		bold:   color.New(color.Bold),
	}
}

func (w *ConsoleWriter) Write(_ context.Context, run Run) error {
	_, _ = w.bold.Fprintf(w.output, "Suite %s (backend: %s, run: %s)\n", run.SuiteName, run.Backend, run.ID)
	for _, result := range run.Results {
		status := w.statusColor(result.Status).Sprintf("%-5s", result.Status)
		fmt.Fprintf(w.output, "%s %s %s %s", status, result.Method, result.Endpoint, result.Name)
		switch {
		case result.Error != "":
			fmt.Fprintf(w.output, ": %s", result.Error)
		case result.Reason != "":
			fmt.Fprintf(w.output, ": %s", result.Reason)
		}
		fmt.Fprintln(w.output)
		if result.Verdict != nil {
			fmt.Fprintf(w.output, "      AI feedback: %s\n", result.Verdict.Feedback)
		}
		for _, issue := range result.SecurityIssues {
			_, _ = w.yellow.Fprintf(w.output, "      %s\n", issue)
		}
	}

	summary := run.Summary()
	line := fmt.Sprintf("%d passed, %d failed, %d errors, success rate %.1f%%",
		summary.Passed, summary.Failed, summary.Errored, summary.SuccessRate*100)
	if run.Succeeded() {
		_, _ = w.green.Fprintln(w.output, line)
	} else {
		_, _ = w.red.Fprintln(w.output, line)
	}
	return nil
}

func (w *ConsoleWriter) statusColor(status Status) *color.Color {
	switch status {
	case StatusPass:
		return w.green
	case StatusFail:
		return w.red
	default:
		return w.yellow
	}
}

// MarkdownWriter renders the embedded report template, or the template at
// TemplatePath when it exists, into Directory.
type MarkdownWriter struct {
	Directory    string
	TemplatePath string
}

func (w MarkdownWriter) Write(_ context.Context, run Run) error {
	_, err := w.writeFile(run)
	return err
}

func (w MarkdownWriter) writeFile(run Run) (string, error) {
	var buf bytes.Buffer
	if err := RenderMarkdown(&buf, w.TemplatePath, run); err != nil {
		return "", err
	}
	if err := os.MkdirAll(w.Directory, 0755); err != nil {
		return "", fmt.Errorf("os.MkdirAll(%s) > %w", w.Directory, err)
	}
	path := filepath.Join(w.Directory, FileName(run)+".md")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("os.WriteFile(%s) > %w", path, err)
	}
	return path, nil
}

// PDFWriter writes the markdown report and converts it to PDF next to it.
type PDFWriter struct {
	Directory    string
	TemplatePath string
}

func (w PDFWriter) Write(_ context.Context, run Run) error {
	markdownPath, err := MarkdownWriter(w).writeFile(run)
	if err != nil {
		return err
	}
	if _, err := pdf.ConvertMarkdownToPDF(markdownPath); err != nil {
		return fmt.Errorf("pdf.ConvertMarkdownToPDF(%s) > %w", markdownPath, err)
	}
	return nil
}

type JSONWriter struct {
	Directory string
}

type jsonReport struct {
	Run
	Summary Summary `json:"summary"`
}

func (w JSONWriter) Write(_ context.Context, run Run) error {
	data, err := json.MarshalIndent(jsonReport{Run: run, Summary: run.Summary()}, "", "  ")
	if err != nil {
		return fmt.Errorf("json.MarshalIndent > %w", err)
	}
	if err := os.MkdirAll(w.Directory, 0755); err != nil {
		return fmt.Errorf("os.MkdirAll(%s) > %w", w.Directory, err)
	}
	path := filepath.Join(w.Directory, FileName(run)+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("os.WriteFile(%s) > %w", path, err)
	}
	return nil
}

// MultiWriter writes to every writer even when one of them fails.
type MultiWriter []Writer

func (w MultiWriter) Write(ctx context.Context, run Run) error {
	var errs []error
	for _, writer := range w {
		if err := writer.Write(ctx, run); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewWriters builds the writers for the given format names. Console output
// goes to output and files go to directory.
func NewWriters(formats []string, output io.Writer, directory string, templatePath string) (MultiWriter, error) {
	writers := make(MultiWriter, 0, len(formats))
	for _, format := range formats {
		switch format {
		case FormatConsole:
			writers = append(writers, NewConsoleWriter(output))
		case FormatMarkdown:
			writers = append(writers, MarkdownWriter{Directory: directory, TemplatePath: templatePath})
		case FormatPDF:
			writers = append(writers, PDFWriter{Directory: directory, TemplatePath: templatePath})
		case FormatJSON:
			writers = append(writers, JSONWriter{Directory: directory})
		default:
			return nil, fmt.Errorf("unknown report format %q", format)
		}
	}
	return writers, nil
}

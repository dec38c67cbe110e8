// Package export renders a task collection as JSON, CSV, plain text or PDF.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/nibzard/tasklist-go/internal/todo"
	"github.com/nibzard/tasklist-go/internal/ui"
)

// Format names an export format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatText Format = "text"
	FormatPDF  Format = "pdf"
)

// Formats lists the supported formats.
var Formats = []Format{FormatJSON, FormatCSV, FormatText, FormatPDF}

// CSVHeader is the first row of a CSV export.
var CSVHeader = []string{"id", "text", "completed", "created_at"}

// ParseFormat maps a format name or file extension to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "text", "txt":
		return FormatText, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unknown export format %q (expected json|csv|text|pdf)", s)
	}
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatText:
		return "text/plain; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/json"
	}
}

// Write renders tasks to w in format f.
func Write(w io.Writer, tasks todo.Collection, f Format) error {
	if tasks == nil {
		tasks = todo.Collection{}
	}
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tasks)
	case FormatCSV:
		return writeCSV(w, tasks)
	case FormatText:
		ui.WriteList(w, tasks, todo.FilterAll)
		return nil
	case FormatPDF:
		return writePDF(w, tasks, time.Now())
	default:
		return fmt.Errorf("unknown export format %q", f)
	}
}

func writeCSV(w io.Writer, tasks todo.Collection) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, t := range tasks {
		row := []string{t.ID, t.Text, strconv.FormatBool(t.Completed), createdAt(t)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writePDF(w io.Writer, tasks todo.Collection, now time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Task list", true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(40, 10, "Task list")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 9)
	open, done := tasks.Counts()
	pdf.Cell(0, 6, fmt.Sprintf("%d open, %d done. Exported %s", open, done, now.UTC().Format(time.RFC3339)))
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 10)
	if len(tasks) == 0 {
		pdf.MultiCell(0, 6, "No tasks yet.", "0", "L", false)
	}
	for i, t := range tasks {
		pdf.MultiCell(0, 6, tr(ui.FormatTask(i+1, t)), "0", "L", false)
	}
	return pdf.Output(w)
}

func createdAt(t todo.Task) string {
	if t.CreatedAt.IsZero() {
		return ""
	}
	return t.CreatedAt.UTC().Format(time.RFC3339Nano)
}

package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"scandex/internal/port"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the CSV header row (13 columns).
var columns = []string{
	"Run ID",
	"Batch ID",
	"Schema",
	"State",
	"Documents",
	"Succeeded",
	"Failed",
	"Pages",
	"Started At",
	"Completed At",
	"Duration (s)",
	"Output Directory",
	"Error Summary",
}

// Writer wraps csv.Writer for exporting processing history as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the 13-column header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteRuns converts processing runs to CSV rows and writes them.
func (w *Writer) WriteRuns(runs []*port.ProcessingRun) error {
	for _, run := range runs {
		if err := w.csv.Write(runToRow(run)); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// runToRow converts a single processing run to a 13-element string slice.
func runToRow(run *port.ProcessingRun) []string {
	row := make([]string, len(columns))
	row[0] = run.ID
	row[1] = run.BatchID
	row[2] = run.SchemaName
	row[3] = run.State
	row[4] = strconv.Itoa(run.TotalDocuments)
	row[5] = strconv.Itoa(run.SuccessCount)
	row[6] = strconv.Itoa(run.FailureCount)
	row[7] = strconv.Itoa(run.TotalPages)
	row[8] = run.StartedAt.Format(time.RFC3339)
	row[9] = run.CompletedAt.Format(time.RFC3339)
	row[10] = formatSeconds(run.DurationMillis)
	row[11] = run.OutputDirectory
	row[12] = run.ErrorSummary
	return row
}

func formatSeconds(millis int64) string {
	return strconv.FormatFloat(float64(millis)/1000.0, 'f', 1, 64)
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized filename for Content-Disposition header.
// Format: {sanitized_name}_{YYYY-MM-DD}.csv
func BuildFilename(name string) string {
	sanitized := SanitizeFilename(name)
	date := time.Now().Format("2006-01-02")
	return fmt.Sprintf("%s_%s.csv", sanitized, date)
}

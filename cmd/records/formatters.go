package records

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Taichi-iskw/audiorefresh/internal/model"
	"github.com/Taichi-iskw/audiorefresh/internal/segmenter"
	"github.com/Taichi-iskw/audiorefresh/internal/worker"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// RecordFormatter renders a record for `record show`
type RecordFormatter interface {
	Format(record *model.Record) (string, error)
}

// TableFormatter prints record details followed by a translation table
type TableFormatter struct{}

// Format formats record as a header block and a table
func (f *TableFormatter) Format(record *model.Record) (string, error) {
	var output strings.Builder

	output.WriteString(fmt.Sprintf("Record ID: %s\n", record.ID))
	if record.Title != "" {
		output.WriteString(fmt.Sprintf("Title: %s\n", record.Title))
	}
	output.WriteString(fmt.Sprintf("Updated At: %s\n", record.UpdatedAt.Format(time.RFC3339)))

	if len(record.Translations) == 0 {
		output.WriteString("\nNo translations.\n")
		return output.String(), nil
	}

	rows := make([][]string, 0, len(record.Translations))
	for _, t := range record.Translations {
		rows = append(rows, []string{
			t.Language,
			orDash(t.UnprocessedAudioRef),
			orDash(t.ProcessedAudioRef),
			formatDuration(t.Duration),
			orDash(t.CleaningJobID),
			orDash(t.TranscriptionJobID),
			orDash(t.TranscriptionSubKey),
		})
	}
	output.WriteString("\n")
	output.WriteString(renderTable(
		[]string{"Language", "Audio", "Cleaned", "Duration", "Cleaning Job", "Transcription Job", "Transcript"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
	))
	output.WriteString("\n")
	return output.String(), nil
}

// JSONFormatter formats a record as JSON
type JSONFormatter struct{}

// Format formats record as indented JSON
func (f *JSONFormatter) Format(record *model.Record) (string, error) {
	jsonBytes, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(jsonBytes), nil
}

// NewRecordFormatter picks a formatter by name
func NewRecordFormatter(format string) (RecordFormatter, error) {
	switch format {
	case "", "table":
		return &TableFormatter{}, nil
	case "json":
		return &JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format %q (expected table or json)", format)
	}
}

// FormatParagraphs renders segmenter output as html, text or json
func FormatParagraphs(paragraphs []model.Paragraph, format string) (string, error) {
	switch format {
	case "", "html":
		return segmenter.Render(paragraphs), nil
	case "text":
		return segmenter.PlainText(paragraphs), nil
	case "json":
		jsonBytes, err := json.MarshalIndent(paragraphs, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return string(jsonBytes), nil
	default:
		return "", fmt.Errorf("unsupported format %q (expected html, text or json)", format)
	}
}

// FormatSweepReports renders one row per sweep
func FormatSweepReports(reports []*worker.SweepReport) string {
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, []string{
			string(r.Kind),
			strconv.Itoa(r.Listed),
			strconv.Itoa(r.Succeeded),
			strconv.Itoa(r.Failed),
			strconv.Itoa(r.Retried),
			strconv.Itoa(r.Skipped),
			strconv.Itoa(r.Updated),
		})
	}
	return renderTable(
		[]string{"Kind", "Listed", "Succeeded", "Failed", "Retried", "Skipped", "Updated"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
	)
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func formatDuration(d *float64) string {
	if d == nil {
		return "-"
	}
	return (time.Duration(*d * float64(time.Second))).Round(time.Millisecond).String()
}

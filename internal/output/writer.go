// Package output writes batch conversion results as an annotated SQL script
// or as JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hurou927/text2sql/internal/converter"
)

// Format selects how results are written.
type Format string

const (
	FormatSQL  Format = "sql"
	FormatJSON Format = "json"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatSQL, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (want sql or json)", s)
	}
}

// Writer writes SQL-script output.
type Writer struct {
	w      io.Writer
	ok     int
	failed int
}

// NewWriter creates a new script writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteHeader writes the leading comment naming the database.
func (sw *Writer) WriteHeader(database string) error {
	if database == "" {
		database = "(unnamed)"
	}
	_, err := fmt.Fprintf(sw.w, "-- text2sql: database %s\n\n", EscapeComment(database))
	return err
}

// WriteResult writes one question as a comment followed by its statement,
// or by an error comment when the conversion failed.
func (sw *Writer) WriteResult(r converter.BatchResult) error {
	if _, err := fmt.Fprintf(sw.w, "-- %s\n", EscapeComment(r.Question)); err != nil {
		return err
	}
	if r.Err != nil {
		sw.failed++
		_, err := fmt.Fprintf(sw.w, "-- error: %s\n\n", EscapeComment(r.Err.Error()))
		return err
	}
	sw.ok++
	_, err := fmt.Fprintf(sw.w, "-- source: %s\n%s;\n\n", r.Result.Source, r.Result.SQL)
	return err
}

// WriteFooter writes the statement count.
func (sw *Writer) WriteFooter() error {
	_, err := fmt.Fprintf(sw.w, "-- %d converted, %d failed\n", sw.ok, sw.failed)
	return err
}

// Failed reports how many results were errors.
func (sw *Writer) Failed() int {
	return sw.failed
}

// Record is the JSON form of one batch result.
type Record struct {
	Question string `json:"question"`
	SQL      string `json:"sql,omitempty"`
	Source   string `json:"source,omitempty"`
	Valid    bool   `json:"valid"`
	Error    string `json:"error,omitempty"`
}

// NewRecord converts a batch result for JSON output.
func NewRecord(r converter.BatchResult) Record {
	rec := Record{Question: r.Question}
	if r.Err != nil {
		rec.Error = r.Err.Error()
		return rec
	}
	rec.SQL = r.Result.SQL
	rec.Source = r.Result.Source.String()
	rec.Valid = r.Result.Valid
	return rec
}

// WriteJSON writes results as an indented JSON array.
func WriteJSON(w io.Writer, results []converter.BatchResult) error {
	recs := make([]Record, len(results))
	for i, r := range results {
		recs[i] = NewRecord(r)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(recs); err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	return nil
}

// Write writes all results in the given format and returns the number of
// failed questions.
func Write(w io.Writer, format Format, database string, results []converter.BatchResult) (int, error) {
	if format == FormatJSON {
		failed := 0
		for _, r := range results {
			if r.Err != nil {
				failed++
			}
		}
		return failed, WriteJSON(w, results)
	}

	sw := NewWriter(w)
	if err := sw.WriteHeader(database); err != nil {
		return 0, err
	}
	for _, r := range results {
		if err := sw.WriteResult(r); err != nil {
			return sw.Failed(), err
		}
	}
	return sw.Failed(), sw.WriteFooter()
}

// Package output renders command results as aligned tables, indented JSON,
// or CSV. Commands pick the format from their --output flag; the renderers
// never decide content, only presentation.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Format is a rendering mode selected by the --output flag.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat validates an --output flag value.
func ParseFormat(v string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(v))) {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unsupported output format: %s (want text, json, or csv)", v)
}

// Row is one record of column name to rendered cell value.
type Row map[string]string

// Table writes rows as an aligned table with an uppercase header,
// in column order.
func Table(w io.Writer, rows []Row, columns []string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = strings.ToUpper(c)
	}
	if _, err := fmt.Fprintln(tw, strings.Join(header, "\t")); err != nil {
		return err
	}

	for _, row := range rows {
		cells := make([]string, len(columns))
		for i, c := range columns {
			v := row[c]
			if v == "" {
				v = "-"
			}
			cells[i] = v
		}
		if _, err := fmt.Fprintln(tw, strings.Join(cells, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// JSON writes v as indented JSON followed by a newline.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// CSV writes rows with a header line, in column order.
func CSV(w io.Writer, rows []Row, columns []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	for _, row := range rows {
		cells := make([]string, len(columns))
		for i, c := range columns {
			cells[i] = row[c]
		}
		if err := cw.Write(cells); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Rows renders rows in the requested format.
func Rows(w io.Writer, format Format, rows []Row, columns []string) error {
	switch format {
	case FormatJSON:
		return JSON(w, rows)
	case FormatCSV:
		return CSV(w, rows, columns)
	default:
		return Table(w, rows, columns)
	}
}

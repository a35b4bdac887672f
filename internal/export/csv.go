// Package export renders records as CSV and writes them to timestamped files.
package export

import (
	"strings"
	"time"
)

// Row is anything that can be rendered as one CSV line.
// Values must be in the same order as Columns.
type Row interface {
	Columns() []string
	Values() []string
}

// filenameLayout is the en-GB short date-time form, "DD/MM/YYYY, HH:MM:SS".
const filenameLayout = "02/01/2006, 15:04:05"

var filenameReplacer = strings.NewReplacer("/", "-", ":", "-")

// ToCSV renders rows with a header taken from the first row's columns.
// Lines are joined by "\n" with no trailing newline. No rows yields "".
func ToCSV[R Row](rows []R) string {
	if len(rows) == 0 {
		return ""
	}

	var sb strings.Builder
	writeLine(&sb, rows[0].Columns())
	for _, row := range rows {
		sb.WriteByte('\n')
		writeLine(&sb, row.Values())
	}
	return sb.String()
}

func writeLine(sb *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(QuoteField(f))
	}
}

// QuoteField quotes v only when it contains a comma or a double quote,
// doubling any embedded quotes. Newlines are left as they are.
func QuoteField(v string) string {
	if !strings.ContainsAny(v, `,"`) {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

// Filename returns "<prefix>_<timestamp>.csv" where timestamp is t in
// en-GB form with "/" and ":" replaced by "-" and ", " by "_".
func Filename(prefix string, t time.Time) string {
	stamp := filenameReplacer.Replace(t.Format(filenameLayout))
	stamp = strings.Replace(stamp, ", ", "_", 1)
	return prefix + "_" + stamp + ".csv"
}

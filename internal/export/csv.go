// Package export serialises rendered table records into downloadable
// formats.
package export

import (
	"encoding/csv"
	"io"
)

// WriteCSV writes records, header row first, as RFC 4180 CSV.
func WriteCSV(w io.Writer, records [][]string) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

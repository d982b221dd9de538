package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"

	"nfedit/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the CSV header row (10 columns).
var columns = []string{
	"Item",
	"Código",
	"Descrição",
	"Unidade",
	"Quantidade",
	"Preço original",
	"Total original",
	"Custo unitário",
	"Total do item",
	"Alterado",
}

// Writer wraps csv.Writer for exporting the cost table as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the 10-column header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteRows converts the table rows to CSV records and writes them,
// followed by a trailing total row. Values land in the file exactly as
// the table displays them.
func (w *Writer) WriteRows(view *domain.TableView) error {
	for i := range view.Rows {
		if err := w.csv.Write(rowToRecord(&view.Rows[i])); err != nil {
			return err
		}
	}
	total := make([]string, len(columns))
	total[7] = "Total"
	total[8] = view.RunningTotal
	return w.csv.Write(total)
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// rowToRecord converts a single table row to a 10-element string slice.
func rowToRecord(r *domain.RowView) []string {
	record := make([]string, len(columns))
	record[0] = r.ItemNumber
	record[1] = r.ProductCode
	record[2] = r.Description
	record[3] = r.Unit
	record[4] = r.Quantity
	record[5] = r.OriginalPrice
	record[6] = r.OriginalTotal
	record[7] = r.CostInput
	record[8] = r.LineTotal
	record[9] = formatBool(r.Changed)
	return record
}

func formatBool(v bool) string {
	if v {
		return "Sim"
	}
	return "Não"
}

// BuildFilename returns the download name for Content-Disposition.
func BuildFilename(accessKey string) string {
	if accessKey == "" {
		return "NFe_custos.csv"
	}
	return fmt.Sprintf("NFe_custos_%s.csv", accessKey)
}

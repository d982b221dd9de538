package xlsxexport

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"nfedit/internal/domain"
)

const (
	sheetName   = "Custos"
	contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// columns defines the item table header row.
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

// Write renders the cost table as an xlsx workbook: a header block with
// the invoice fields, the item rows and the running total. Values land
// in the sheet exactly as the table displays them.
func Write(view *domain.TableView) (*domain.ExportFile, error) {
	if view == nil {
		return nil, domain.ErrNoDocument
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	headerRows := [][]interface{}{
		{"Chave de acesso", view.Header.AccessKey},
		{"Emitente", view.Header.IssuerName},
		{"Destinatário", view.Header.RecipientName},
		{"CNPJ/CPF", view.Header.TaxIDMasked},
		{"Emissão", view.Header.IssueDate},
	}
	row := 1
	for _, hr := range headerRows {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &hr); err != nil {
			return nil, fmt.Errorf("write header row: %w", err)
		}
		row++
	}

	// Blank separator row, then the item table.
	row++
	titleCell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return nil, err
	}
	cols := make([]interface{}, len(columns))
	for i, c := range columns {
		cols[i] = c
	}
	if err := f.SetSheetRow(sheetName, titleCell, &cols); err != nil {
		return nil, fmt.Errorf("write column header: %w", err)
	}
	row++

	for _, r := range view.Rows {
		changed := "Não"
		if r.Changed {
			changed = "Sim"
		}
		values := []interface{}{
			r.ItemNumber,
			r.ProductCode,
			r.Description,
			r.Unit,
			r.Quantity,
			r.OriginalPrice,
			r.OriginalTotal,
			r.CostInput,
			r.LineTotal,
			changed,
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("write item row: %w", err)
		}
		row++
	}

	totalLabel, err := excelize.CoordinatesToCellName(len(columns)-2, row)
	if err != nil {
		return nil, err
	}
	totalRow := []interface{}{"Total", view.RunningTotal}
	if err := f.SetSheetRow(sheetName, totalLabel, &totalRow); err != nil {
		return nil, fmt.Errorf("write total row: %w", err)
	}

	if err := f.SetColWidth(sheetName, "A", "B", 18); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheetName, "C", "C", 40); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheetName, "D", "J", 16); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}

	return &domain.ExportFile{
		Filename:    Filename(view.Header.AccessKey),
		ContentType: contentType,
		Data:        buf.Bytes(),
	}, nil
}

// Filename derives the download name from the access key.
func Filename(accessKey string) string {
	if accessKey == "" {
		return "NFe_custos.xlsx"
	}
	return fmt.Sprintf("NFe_custos_%s.xlsx", accessKey)
}

package xlsxexport_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"nfedit/internal/domain"
	"nfedit/internal/xlsxexport"
)

func sampleView() *domain.TableView {
	return &domain.TableView{
		Header: domain.HeaderView{
			AccessKey:     "35240112345678000190550010000001231000001234",
			IssuerName:    "Distribuidora Alfa Ltda",
			RecipientName: "Mercado Beta",
			IssueDate:     "15/01/2024",
			TaxIDKind:     domain.TaxIDCNPJ,
			TaxIDMasked:   "98.765.432/0001-55",
			TaxIDValid:    true,
		},
		Rows: []domain.RowView{
			{
				Index: 0, ItemNumber: "1", ProductCode: "A001",
				Description: "Arroz 5kg", Unit: "FD", Quantity: "10",
				OriginalPrice: "R$ 25,50", OriginalTotal: "R$ 255,00",
				CostInput: "30,00", LineTotal: "R$ 300,00", Changed: true,
			},
			{
				Index: 1, ItemNumber: "2", ProductCode: "B002",
				Description: "Feijao 1kg", Unit: "CX", Quantity: "4",
				OriginalPrice: "R$ 80,00", OriginalTotal: "R$ 320,00",
				CostInput: "80,00", LineTotal: "R$ 320,00",
			},
		},
		RunningTotal: "R$ 620,00",
	}
}

func TestWrite(t *testing.T) {
	out, err := xlsxexport.Write(sampleView())
	require.NoError(t, err)

	assert.Equal(t, "NFe_custos_35240112345678000190550010000001231000001234.xlsx", out.Filename)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", out.ContentType)

	f, err := excelize.OpenReader(bytes.NewReader(out.Data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	get := func(cell string) string {
		v, err := f.GetCellValue("Custos", cell)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "Chave de acesso", get("A1"))
	assert.Equal(t, "35240112345678000190550010000001231000001234", get("B1"))
	assert.Equal(t, "Distribuidora Alfa Ltda", get("B2"))
	assert.Equal(t, "98.765.432/0001-55", get("B4"))

	// Column headers on row 7, items from row 8.
	assert.Equal(t, "Item", get("A7"))
	assert.Equal(t, "Arroz 5kg", get("C8"))
	assert.Equal(t, "30,00", get("H8"))
	assert.Equal(t, "Sim", get("J8"))
	assert.Equal(t, "Não", get("J9"))

	// Total row below the last item.
	assert.Equal(t, "Total", get("H10"))
	assert.Equal(t, "R$ 620,00", get("I10"))
}

func TestWrite_NilView(t *testing.T) {
	_, err := xlsxexport.Write(nil)
	assert.ErrorIs(t, err, domain.ErrNoDocument)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "NFe_custos.xlsx", xlsxexport.Filename(""))
	assert.Equal(t, "NFe_custos_123.xlsx", xlsxexport.Filename("123"))
}

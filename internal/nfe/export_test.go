package nfe_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nfedit/internal/domain"
	"nfedit/internal/nfe"
)

func mustParse(t *testing.T, doc string) *nfe.Invoice {
	t.Helper()
	inv, err := nfe.Parse([]byte(doc))
	require.NoError(t, err)
	return inv
}

func TestBuildAltered_RoundTripWithoutEdits(t *testing.T) {
	inv := mustParse(t, sampleNFe)

	out, err := nfe.BuildAltered(inv, inv.Items, inv.Header)
	require.NoError(t, err)

	re, err := nfe.Parse(out.Data)
	require.NoError(t, err)
	require.Len(t, re.Items, len(inv.Items))

	// Unedited export must keep every product numerically equal within
	// 2-decimal rounding.
	for i, got := range re.Items {
		want := inv.Items[i]
		assert.Equal(t, want.Unit, got.Unit)
		assert.InDelta(t, want.OriginalUnitPrice, got.OriginalUnitPrice, 0.005)
		assert.InDelta(t, want.Quantity*want.OriginalUnitPrice, got.OriginalLineTotal, 0.005)
	}
}

func TestBuildAltered_AppliesCostEdit(t *testing.T) {
	inv := mustParse(t, sampleNFe)

	items := append([]domain.LineItem(nil), inv.Items...)
	items[1].UnitCost = 75.5

	out, err := nfe.BuildAltered(inv, items, inv.Header)
	require.NoError(t, err)

	text := string(out.Data)
	assert.Contains(t, text, "<vUnCom>75.50</vUnCom>")
	assert.Contains(t, text, "<vProd>302.00</vProd>") // 4 × 75.50

	// The session's own tree must stay untouched.
	orig, err := inv.Doc.WriteToString()
	require.NoError(t, err)
	assert.Contains(t, orig, "<vUnCom>80.0000</vUnCom>")
}

func TestBuildAltered_ZeroCost(t *testing.T) {
	inv := mustParse(t, sampleNFe)

	items := append([]domain.LineItem(nil), inv.Items...)
	items[0].UnitCost = 0

	out, err := nfe.BuildAltered(inv, items, inv.Header)
	require.NoError(t, err)

	text := string(out.Data)
	assert.Contains(t, text, "<vUnCom>0.00</vUnCom>")
	assert.Contains(t, text, "<vProd>0.00</vProd>")
	assert.True(t, items[0].Changed())
}

func TestBuildAltered_ItemNumberMatchingIsRawString(t *testing.T) {
	doc := `<NFe><infNFe Id="NFe1">
	  <det nItem="01"><prod><cProd>X</cProd><qCom>1</qCom><vUnCom>10.00</vUnCom><vProd>10.00</vProd></prod></det>
	</infNFe></NFe>`
	inv := mustParse(t, doc)

	// An edit keyed "1" must not touch the node numbered "01".
	items := []domain.LineItem{{ItemNumber: "1", Unit: "KG", Quantity: 1, UnitCost: 999}}
	out, err := nfe.BuildAltered(inv, items, inv.Header)
	require.NoError(t, err)

	text := string(out.Data)
	assert.Contains(t, text, "<vUnCom>10.00</vUnCom>")
	assert.NotContains(t, text, "999")
}

func TestBuildAltered_UnmatchedNodeBytesPreserved(t *testing.T) {
	doc := `<NFe><infNFe Id="NFe1"><det nItem="7"><prod><cProd>K</cProd><xProd>Keep &amp; hold</xProd><uCom>un</uCom><qCom>2</qCom><vUnCom>3.1400</vUnCom><vProd>6.28</vProd></prod></det></infNFe></NFe>`
	inv := mustParse(t, doc)

	out, err := nfe.BuildAltered(inv, nil, inv.Header)
	require.NoError(t, err)

	// No item matches, so the det serializes exactly as in the source.
	assert.Contains(t, string(out.Data), `<det nItem="7"><prod><cProd>K</cProd><xProd>Keep &amp; hold</xProd><uCom>un</uCom><qCom>2</qCom><vUnCom>3.1400</vUnCom><vProd>6.28</vProd></prod></det>`)
}

func TestBuildAltered_EmptyUnitDefaultsToUN(t *testing.T) {
	doc := `<NFe><infNFe Id="NFe1"><det nItem="1"><prod><cProd>X</cProd><qCom>1</qCom><vUnCom>5.00</vUnCom><vProd>5.00</vProd></prod></det></infNFe></NFe>`
	inv := mustParse(t, doc)

	out, err := nfe.BuildAltered(inv, inv.Items, inv.Header)
	require.NoError(t, err)
	assert.Contains(t, string(out.Data), "<uCom>UN</uCom>")
}

func TestBuildAltered_RecipientCNPJ(t *testing.T) {
	t.Run("valid_cnpj_replaces_cpf", func(t *testing.T) {
		inv := mustParse(t, sampleNFe)
		header := inv.Header
		header.RecipientTaxID = domain.TaxID{Kind: domain.TaxIDCNPJ, Digits: "98765432000155"}

		out, err := nfe.BuildAltered(inv, inv.Items, header)
		require.NoError(t, err)

		text := string(out.Data)
		assert.Contains(t, text, "<CNPJ>98765432000155</CNPJ>")
		assert.NotContains(t, text, "<CPF>")
	})

	t.Run("short_cnpj_leaves_recipient_untouched", func(t *testing.T) {
		inv := mustParse(t, sampleNFe)
		header := inv.Header
		header.RecipientTaxID = domain.TaxID{Kind: domain.TaxIDCNPJ, Digits: "123"}

		out, err := nfe.BuildAltered(inv, inv.Items, header)
		require.NoError(t, err)
		assert.Contains(t, string(out.Data), "<CPF>12345678901</CPF>")
	})

	t.Run("cpf_tag_leaves_recipient_untouched", func(t *testing.T) {
		inv := mustParse(t, sampleNFe)
		out, err := nfe.BuildAltered(inv, inv.Items, inv.Header)
		require.NoError(t, err)
		assert.Contains(t, string(out.Data), "<CPF>12345678901</CPF>")
	})
}

func TestBuildAltered_XMLDeclaration(t *testing.T) {
	t.Run("original_declaration_kept", func(t *testing.T) {
		inv := mustParse(t, sampleNFe)
		out, err := nfe.BuildAltered(inv, inv.Items, inv.Header)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(out.Data), "<?xml"))
		assert.Equal(t, 1, strings.Count(string(out.Data), "<?xml"))
	})

	t.Run("declaration_synthesized_when_absent", func(t *testing.T) {
		inv := mustParse(t, `<NFe><infNFe Id="NFe1"></infNFe></NFe>`)
		out, err := nfe.BuildAltered(inv, nil, inv.Header)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(out.Data), `<?xml version="1.0" encoding="UTF-8"?>`))
	})
}

func TestBuildAltered_NoDocument(t *testing.T) {
	_, err := nfe.BuildAltered(nil, nil, domain.HeaderInfo{})
	assert.ErrorIs(t, err, domain.ErrNoDocument)

	_, err = nfe.BuildAltered(&nfe.Invoice{}, nil, domain.HeaderInfo{})
	assert.ErrorIs(t, err, domain.ErrNoDocument)
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "NFe_123_ALTERADA_sem_assinatura.xml", nfe.ExportFilename("123"))
	assert.Equal(t, "NFe_custos_ALTERADA_sem_assinatura.xml", nfe.ExportFilename(""))
}

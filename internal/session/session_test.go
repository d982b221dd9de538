package session_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nfedit/internal/domain"
	"nfedit/internal/nfe"
	"nfedit/internal/session"
)

const sampleNFe = `<?xml version="1.0" encoding="UTF-8"?>
<nfeProc xmlns="http://www.portalfiscal.inf.br/nfe">
  <NFe>
    <infNFe Id="NFe35240112345678000190550010000001231000001234">
      <ide><dhEmi>2024-01-15T10:30:00-03:00</dhEmi></ide>
      <emit><CNPJ>12345678000190</CNPJ><xNome>Distribuidora Alfa Ltda</xNome></emit>
      <dest><CNPJ>98765432000155</CNPJ><xNome>Mercado Beta</xNome></dest>
      <det nItem="1">
        <prod><cProd>A001</cProd><xProd>Arroz 5kg</xProd><uCom>FD</uCom><qCom>10</qCom><vUnCom>25.50</vUnCom><vProd>255.00</vProd></prod>
      </det>
      <det nItem="2">
        <prod><cProd>B002</cProd><xProd>Feijao 1kg</xProd><uCom>CX</uCom><qCom>4</qCom><vUnCom>80.00</vUnCom><vProd>320.00</vProd></prod>
      </det>
      <det nItem="3">
        <prod><cProd>C003</cProd><xProd>Oleo 900ml</xProd><uCom></uCom><qCom>12</qCom><vUnCom>7.90</vUnCom><vProd>94.80</vProd></prod>
      </det>
    </infNFe>
  </NFe>
</nfeProc>`

func loadedStore(t *testing.T) *session.Store {
	t.Helper()
	s := session.NewStore(true)
	_, err := s.Load([]byte(sampleNFe))
	require.NoError(t, err)
	return s
}

func TestLoad(t *testing.T) {
	s := session.NewStore(true)
	view, err := s.Load([]byte(sampleNFe))
	require.NoError(t, err)

	require.Len(t, view.Rows, 3)
	assert.Equal(t, "Distribuidora Alfa Ltda", view.Header.IssuerName)
	assert.Equal(t, "15/01/2024", view.Header.IssueDate)
	assert.Equal(t, domain.TaxIDCNPJ, view.Header.TaxIDKind)
	assert.Equal(t, "98.765.432/0001-55", view.Header.TaxIDMasked)
	assert.True(t, view.Header.TaxIDValid)
	assert.Equal(t, domain.SelectionNone, view.Selection)

	// 255 + 320 + 94.80
	assert.Equal(t, "R$ 669,80", view.RunningTotal)

	// Each cost input starts at the declared price, nothing changed.
	for _, row := range view.Rows {
		assert.False(t, row.Changed)
	}
	assert.Equal(t, "25,50", view.Rows[0].CostInput)
}

func TestLoad_FailureKeepsPreviousSession(t *testing.T) {
	s := loadedStore(t)

	_, err := s.Load([]byte("<nfeProc><broken"))
	require.Error(t, err)
	var perr *nfe.ParseError
	assert.True(t, errors.As(err, &perr))

	view, err := s.Snapshot()
	require.NoError(t, err)
	assert.Len(t, view.Rows, 3)
	assert.Equal(t, "Distribuidora Alfa Ltda", view.Header.IssuerName)
}

func TestLoad_ReplacesPreviousSession(t *testing.T) {
	s := loadedStore(t)

	other := `<NFe><infNFe Id="NFe42"><emit><xNome>Outra</xNome></emit></infNFe></NFe>`
	view, err := s.Load([]byte(other))
	require.NoError(t, err)
	assert.Equal(t, "42", view.Header.AccessKey)
	assert.Empty(t, view.Rows)
}

func TestEditCost(t *testing.T) {
	s := loadedStore(t)

	up, err := s.EditCost(1, "75,50")
	require.NoError(t, err)

	assert.Equal(t, "75,50", up.Echo)
	assert.True(t, up.Row.Changed)
	assert.Equal(t, "R$ 302,00", up.Row.LineTotal)

	// 255 + 302 + 94.80
	assert.Equal(t, "R$ 651,80", up.RunningTotal)

	t.Run("edit_back_clears_changed", func(t *testing.T) {
		up, err := s.EditCost(1, "80,00")
		require.NoError(t, err)
		assert.False(t, up.Row.Changed)
	})

	t.Run("garbage_parses_to_zero", func(t *testing.T) {
		up, err := s.EditCost(0, "abc")
		require.NoError(t, err)
		assert.Equal(t, "abc", up.Echo)
		assert.Equal(t, "0,00", up.Row.CostInput)
		assert.True(t, up.Row.Changed)
	})

	t.Run("out_of_range", func(t *testing.T) {
		_, err := s.EditCost(9, "1")
		assert.ErrorIs(t, err, domain.ErrItemOutOfRange)
	})
}

func TestEditUnit(t *testing.T) {
	s := loadedStore(t)

	up, err := s.EditUnit(0, "cx")
	require.NoError(t, err)
	assert.Equal(t, "CX", up.Echo)
	assert.Equal(t, "CX", up.Row.Unit)
}

func TestNormalizeCostInput(t *testing.T) {
	s := loadedStore(t)

	_, err := s.EditCost(0, "12")
	require.NoError(t, err)

	up, err := s.NormalizeCostInput(0)
	require.NoError(t, err)
	assert.Equal(t, "12,00", up.Echo)
}

func TestBulkApplyUnit(t *testing.T) {
	t.Run("all", func(t *testing.T) {
		s := loadedStore(t)
		view, err := s.BulkApplyUnit("un", domain.ScopeAll)
		require.NoError(t, err)
		for _, row := range view.Rows {
			assert.Equal(t, "UN", row.Unit)
		}
	})

	t.Run("selected_only", func(t *testing.T) {
		s := loadedStore(t)
		_, err := s.Select(2, true)
		require.NoError(t, err)

		view, err := s.BulkApplyUnit("KG", domain.ScopeSelected)
		require.NoError(t, err)
		assert.Equal(t, "FD", view.Rows[0].Unit)
		assert.Equal(t, "CX", view.Rows[1].Unit)
		assert.Equal(t, "KG", view.Rows[2].Unit)
	})

	t.Run("empty_unit", func(t *testing.T) {
		s := loadedStore(t)
		_, err := s.BulkApplyUnit("   ", domain.ScopeAll)
		assert.ErrorIs(t, err, domain.ErrEmptyUnit)
	})

	t.Run("nothing_selected", func(t *testing.T) {
		s := loadedStore(t)
		_, err := s.BulkApplyUnit("UN", domain.ScopeSelected)
		assert.ErrorIs(t, err, domain.ErrEmptyScope)
	})

	t.Run("bad_scope", func(t *testing.T) {
		s := loadedStore(t)
		_, err := s.BulkApplyUnit("UN", domain.BulkScope("weird"))
		assert.ErrorIs(t, err, domain.ErrInvalidScope)
	})
}

func TestSelection(t *testing.T) {
	s := loadedStore(t)

	st, err := s.Select(0, true)
	require.NoError(t, err)
	assert.Equal(t, domain.SelectionSome, st)

	st, err = s.Select(1, true)
	require.NoError(t, err)
	assert.Equal(t, domain.SelectionSome, st)

	st, err = s.Select(2, true)
	require.NoError(t, err)
	assert.Equal(t, domain.SelectionAll, st)

	st, err = s.Select(1, false)
	require.NoError(t, err)
	assert.Equal(t, domain.SelectionSome, st)

	st, err = s.SelectAll(false)
	require.NoError(t, err)
	assert.Equal(t, domain.SelectionNone, st)

	st, err = s.SelectAll(true)
	require.NoError(t, err)
	assert.Equal(t, domain.SelectionAll, st)
}

func TestEditAccessKey(t *testing.T) {
	s := loadedStore(t)

	key, err := s.EditAccessKey("12a34-56")
	require.NoError(t, err)
	assert.Equal(t, "123456", key)

	long := strings.Repeat("9", 50)
	key, err = s.EditAccessKey(long)
	require.NoError(t, err)
	assert.Len(t, key, 44)
}

func TestEditRecipientTaxID(t *testing.T) {
	t.Run("cnpj_kind_updates", func(t *testing.T) {
		s := loadedStore(t)
		hv, err := s.EditRecipientTaxID("11.222.333/0001-44")
		require.NoError(t, err)
		assert.Equal(t, "11.222.333/0001-44", hv.TaxIDMasked)
		assert.True(t, hv.TaxIDValid)
	})

	t.Run("partial_digits_invalid", func(t *testing.T) {
		s := loadedStore(t)
		hv, err := s.EditRecipientTaxID("112")
		require.NoError(t, err)
		assert.Equal(t, "11.2", hv.TaxIDMasked)
		assert.False(t, hv.TaxIDValid)
	})
}

func TestExport(t *testing.T) {
	t.Run("no_document", func(t *testing.T) {
		s := session.NewStore(true)
		_, err := s.Export(true)
		assert.ErrorIs(t, err, domain.ErrNoDocument)
	})

	t.Run("confirmation_required", func(t *testing.T) {
		s := loadedStore(t)
		_, err := s.Export(false)
		assert.ErrorIs(t, err, domain.ErrConfirmRequired)
		assert.True(t, s.Active())
	})

	t.Run("success_resets_when_policy_on", func(t *testing.T) {
		s := loadedStore(t)
		_, err := s.EditCost(0, "30,00")
		require.NoError(t, err)

		out, err := s.Export(true)
		require.NoError(t, err)
		assert.Equal(t, "NFe_35240112345678000190550010000001231000001234_ALTERADA_sem_assinatura.xml", out.Filename)
		assert.Contains(t, string(out.Data), "<vUnCom>30.00</vUnCom>")
		assert.False(t, s.Active())
	})

	t.Run("keeps_session_when_policy_off", func(t *testing.T) {
		s := session.NewStore(false)
		_, err := s.Load([]byte(sampleNFe))
		require.NoError(t, err)

		_, err = s.Export(true)
		require.NoError(t, err)
		assert.True(t, s.Active())
	})
}

func TestSnapshot_EmptyStore(t *testing.T) {
	s := session.NewStore(true)
	_, err := s.Snapshot()
	assert.ErrorIs(t, err, domain.ErrNoDocument)
}

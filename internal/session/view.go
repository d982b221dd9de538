package session

import (
	"nfedit/internal/domain"
	"nfedit/internal/normalize"
)

// snapshotLocked projects the whole model into the render structure. Both
// presentation variants consume the same TableView, which is what keeps
// mirrored inputs consistent by construction. Callers hold s.mu.
func (s *Store) snapshotLocked() *domain.TableView {
	rows := make([]domain.RowView, len(s.items))
	for i := range s.items {
		rows[i] = s.rowViewLocked(i)
	}
	return &domain.TableView{
		Header:       s.headerViewLocked(),
		Rows:         rows,
		RunningTotal: s.runningTotalLocked(),
		Selection:    s.selectionStateLocked(),
	}
}

func (s *Store) headerViewLocked() domain.HeaderView {
	taxID := s.header.RecipientTaxID
	hv := domain.HeaderView{
		AccessKey:     s.header.AccessKey,
		IssuerName:    s.header.IssuerName,
		RecipientName: s.header.RecipientName,
		IssueDate:     s.header.IssueDate,
		TaxIDKind:     taxID.Kind,
	}
	if taxID.Kind == domain.TaxIDCNPJ {
		hv.TaxIDMasked = normalize.MaskCNPJ(taxID.Digits)
		hv.TaxIDValid = normalize.IsValidCNPJ14(taxID.Digits)
	}
	return hv
}

func (s *Store) rowViewLocked(i int) domain.RowView {
	it := &s.items[i]
	return domain.RowView{
		Index:         i,
		ItemNumber:    it.ItemNumber,
		ProductCode:   it.ProductCode,
		Description:   it.Description,
		Unit:          it.Unit,
		Quantity:      normalize.FormatQuantity(it.Quantity),
		OriginalPrice: normalize.FormatCurrency(it.OriginalUnitPrice, 2),
		OriginalTotal: normalize.FormatCurrency(it.OriginalLineTotal, 2),
		CostInput:     normalize.FormatInputNumber(it.UnitCost, 2),
		LineTotal:     normalize.FormatCurrency(it.LineCostTotal(), 2),
		Changed:       it.Changed(),
		Selected:      s.selected[i],
	}
}

// runningTotalLocked sums quantity times edited cost over every item.
func (s *Store) runningTotalLocked() string {
	var sum float64
	for i := range s.items {
		sum += s.items[i].LineCostTotal()
	}
	return normalize.FormatCurrency(sum, 2)
}

func (s *Store) selectionStateLocked() domain.SelectionState {
	switch {
	case len(s.items) == 0 || len(s.selected) == 0:
		return domain.SelectionNone
	case len(s.selected) == len(s.items):
		return domain.SelectionAll
	default:
		return domain.SelectionSome
	}
}

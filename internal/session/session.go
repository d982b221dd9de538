// Package session owns the single live edit session: the parsed document,
// the editable line items and the selection set. Every operation runs
// under one mutex, so there is exactly one writer no matter how many
// shell callbacks fire. The view is always rebuilt wholesale from the
// model; there is no view-held state to drift out of sync.
package session

import (
	"log"
	"strings"
	"sync"

	"nfedit/internal/domain"
	"nfedit/internal/nfe"
	"nfedit/internal/normalize"
)

const accessKeyMaxDigits = 44

// Store is the process-wide session holder. A Store starts empty, is
// populated wholesale by Load, and cleared by Reset or (per policy) by a
// successful export.
type Store struct {
	mu               sync.Mutex
	inv              *nfe.Invoice
	header           domain.HeaderInfo
	items            []domain.LineItem
	selected         map[int]bool
	resetAfterExport bool
}

// NewStore creates an empty Store. resetAfterExport controls whether a
// successful export clears the session.
func NewStore(resetAfterExport bool) *Store {
	return &Store{
		selected:         make(map[int]bool),
		resetAfterExport: resetAfterExport,
	}
}

// RowUpdate is the reconciliation result of a single-row edit: the
// re-rendered row, the text to echo into the edited input and its mirror,
// and the recomputed running total.
type RowUpdate struct {
	Row          domain.RowView `json:"row"`
	Echo         string         `json:"echo"`
	RunningTotal string         `json:"running_total"`
}

// Active reports whether a document is loaded.
func (s *Store) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inv != nil
}

// Load parses raw bytes and replaces the session wholesale. A parse
// failure leaves the previous session, if any, completely unchanged.
func (s *Store) Load(raw []byte) (*domain.TableView, error) {
	inv, err := nfe.Parse(raw)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inv = inv
	s.header = inv.Header
	s.items = append([]domain.LineItem(nil), inv.Items...)
	s.selected = make(map[int]bool)
	log.Printf("session: loaded document key=%q items=%d", s.header.AccessKey, len(s.items))
	return s.snapshotLocked(), nil
}

// Reset clears the session back to empty.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Store) resetLocked() {
	s.inv = nil
	s.header = domain.HeaderInfo{}
	s.items = nil
	s.selected = make(map[int]bool)
}

// Snapshot rebuilds the full view from the model.
func (s *Store) Snapshot() (*domain.TableView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inv == nil {
		return nil, domain.ErrNoDocument
	}
	return s.snapshotLocked(), nil
}

// EditCost parses the raw input, stores the unit cost and re-renders the
// row. The raw text is echoed verbatim so the mirrored input can track
// the one being typed into.
func (s *Store) EditCost(index int, raw string) (*RowUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inv == nil {
		return nil, domain.ErrNoDocument
	}
	if index < 0 || index >= len(s.items) {
		return nil, domain.ErrItemOutOfRange
	}
	s.items[index].UnitCost = normalize.ParseNumber(raw)
	return &RowUpdate{
		Row:          s.rowViewLocked(index),
		Echo:         raw,
		RunningTotal: s.runningTotalLocked(),
	}, nil
}

// EditUnit uppercases and stores the commercial unit. The normalized text
// is echoed back into the edited input as well as its mirror.
func (s *Store) EditUnit(index int, raw string) (*RowUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inv == nil {
		return nil, domain.ErrNoDocument
	}
	if index < 0 || index >= len(s.items) {
		return nil, domain.ErrItemOutOfRange
	}
	unit := strings.ToUpper(raw)
	s.items[index].Unit = unit
	return &RowUpdate{
		Row:          s.rowViewLocked(index),
		Echo:         unit,
		RunningTotal: s.runningTotalLocked(),
	}, nil
}

// NormalizeCostInput is the blur behaviour of a cost input: the echo is
// the canonical fixed 2-decimal comma form of the current value, so stray
// input like "12" re-renders as "12,00".
func (s *Store) NormalizeCostInput(index int) (*RowUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inv == nil {
		return nil, domain.ErrNoDocument
	}
	if index < 0 || index >= len(s.items) {
		return nil, domain.ErrItemOutOfRange
	}
	return &RowUpdate{
		Row:          s.rowViewLocked(index),
		Echo:         normalize.FormatInputNumber(s.items[index].UnitCost, 2),
		RunningTotal: s.runningTotalLocked(),
	}, nil
}

// BulkApplyUnit sets the commercial unit on every item in scope.
func (s *Store) BulkApplyUnit(unit string, scope domain.BulkScope) (*domain.TableView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inv == nil {
		return nil, domain.ErrNoDocument
	}
	unit = strings.ToUpper(strings.TrimSpace(unit))
	if unit == "" {
		return nil, domain.ErrEmptyUnit
	}

	var idxs []int
	switch scope {
	case domain.ScopeAll:
		for i := range s.items {
			idxs = append(idxs, i)
		}
	case domain.ScopeSelected:
		for i := range s.items {
			if s.selected[i] {
				idxs = append(idxs, i)
			}
		}
	default:
		return nil, domain.ErrInvalidScope
	}
	if len(idxs) == 0 {
		return nil, domain.ErrEmptyScope
	}

	for _, i := range idxs {
		s.items[i].Unit = unit
	}
	return s.snapshotLocked(), nil
}

// Select toggles one row's selection and returns the recomputed master
// state.
func (s *Store) Select(index int, on bool) (domain.SelectionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inv == nil {
		return domain.SelectionNone, domain.ErrNoDocument
	}
	if index < 0 || index >= len(s.items) {
		return domain.SelectionNone, domain.ErrItemOutOfRange
	}
	if on {
		s.selected[index] = true
	} else {
		delete(s.selected, index)
	}
	return s.selectionStateLocked(), nil
}

// SelectAll marks or clears every row.
func (s *Store) SelectAll(on bool) (domain.SelectionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inv == nil {
		return domain.SelectionNone, domain.ErrNoDocument
	}
	s.selected = make(map[int]bool)
	if on {
		for i := range s.items {
			s.selected[i] = true
		}
	}
	return s.selectionStateLocked(), nil
}

// EditAccessKey keeps only digits and clips to the 44-digit key length.
func (s *Store) EditAccessKey(raw string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inv == nil {
		return "", domain.ErrNoDocument
	}
	key := normalize.DigitsOnly(raw)
	if len(key) > accessKeyMaxDigits {
		key = key[:accessKeyMaxDigits]
	}
	s.header.AccessKey = key
	return key, nil
}

// EditRecipientTaxID updates the stored CNPJ digits. The edit only
// applies when the source document tagged the recipient as CNPJ; for CPF
// or absent ids the header is left as parsed.
func (s *Store) EditRecipientTaxID(raw string) (*domain.HeaderView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inv == nil {
		return nil, domain.ErrNoDocument
	}
	if s.header.RecipientTaxID.Kind == domain.TaxIDCNPJ {
		s.header.RecipientTaxID.Digits = normalize.DigitsOnly(raw)
	}
	hv := s.headerViewLocked()
	return &hv, nil
}

// Export builds the altered document copy. The confirm flag is the
// user-confirmation gate; without it nothing is produced. On success the
// session is cleared when the store's policy says so.
func (s *Store) Export(confirm bool) (*domain.ExportFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inv == nil {
		return nil, domain.ErrNoDocument
	}
	if !confirm {
		return nil, domain.ErrConfirmRequired
	}

	out, err := nfe.BuildAltered(s.inv, s.items, s.header)
	if err != nil {
		return nil, err
	}
	log.Printf("session: exported %s (%d bytes)", out.Filename, len(out.Data))
	if s.resetAfterExport {
		s.resetLocked()
	}
	return out, nil
}

// Items returns a copy of the current line items.
func (s *Store) Items() ([]domain.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inv == nil {
		return nil, domain.ErrNoDocument
	}
	return append([]domain.LineItem(nil), s.items...), nil
}

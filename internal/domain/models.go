package domain

// TaxID is a recipient tax identifier in canonical digit-only form.
// Display masking is derived at render time and never stored.
type TaxID struct {
	Kind   TaxIDKind `json:"kind"`
	Digits string    `json:"digits"`
}

// HeaderInfo carries the invoice-level fields extracted from the document.
type HeaderInfo struct {
	AccessKey      string `json:"access_key"`
	IssuerName     string `json:"issuer_name"`
	RecipientName  string `json:"recipient_name"`
	IssueDate      string `json:"issue_date"`
	RecipientTaxID TaxID  `json:"recipient_tax_id"`
}

// LineItem is one editable row of the cost table. OriginalUnitPrice and
// OriginalLineTotal are the values declared in the source document and
// never change after parse; UnitCost is the user-edited value.
type LineItem struct {
	ItemNumber        string  `json:"item_number"`
	ProductCode       string  `json:"product_code"`
	Description       string  `json:"description"`
	Unit              string  `json:"unit"`
	Quantity          float64 `json:"quantity"`
	OriginalUnitPrice float64 `json:"original_unit_price"`
	OriginalLineTotal float64 `json:"original_line_total"`
	UnitCost          float64 `json:"unit_cost"`
}

// costEpsilon bounds the float comparison behind the changed flag.
const costEpsilon = 1e-9

// LineCostTotal is the derived row total: quantity times edited unit cost.
func (li *LineItem) LineCostTotal() float64 {
	return li.Quantity * li.UnitCost
}

// Changed reports whether the unit cost diverges from the declared price.
func (li *LineItem) Changed() bool {
	d := li.UnitCost - li.OriginalUnitPrice
	if d < 0 {
		d = -d
	}
	return d > costEpsilon
}

// RowView is one fully formatted table row, ready for either presentation
// variant. Both the full and the compact layout render from the same
// RowView, so mirrored inputs can never disagree.
type RowView struct {
	Index         int    `json:"index"`
	ItemNumber    string `json:"item_number"`
	ProductCode   string `json:"product_code"`
	Description   string `json:"description"`
	Unit          string `json:"unit"`
	Quantity      string `json:"quantity"`
	OriginalPrice string `json:"original_price"`
	OriginalTotal string `json:"original_total"`
	CostInput     string `json:"cost_input"`
	LineTotal     string `json:"line_total"`
	Changed       bool   `json:"changed"`
	Selected      bool   `json:"selected"`
}

// HeaderView is the formatted header block.
type HeaderView struct {
	AccessKey     string    `json:"access_key"`
	IssuerName    string    `json:"issuer_name"`
	RecipientName string    `json:"recipient_name"`
	IssueDate     string    `json:"issue_date"`
	TaxIDKind     TaxIDKind `json:"tax_id_kind"`
	TaxIDMasked   string    `json:"tax_id_masked"`
	TaxIDValid    bool      `json:"tax_id_valid"`
}

// TableView is the complete render model: header, rows, running total and
// the derived master selection state. It is rebuilt wholesale from the
// session on every read.
type TableView struct {
	Header       HeaderView     `json:"header"`
	Rows         []RowView      `json:"rows"`
	RunningTotal string         `json:"running_total"`
	Selection    SelectionState `json:"selection"`
}

// ExportFile is a serialized download: the altered XML copy or the
// spreadsheet rendition of the table.
type ExportFile struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}

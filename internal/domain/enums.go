package domain

// TaxIDKind tags the recipient tax identifier found in the source document.
type TaxIDKind string

const (
	TaxIDCNPJ TaxIDKind = "CNPJ"
	TaxIDCPF  TaxIDKind = "CPF"
	TaxIDNone TaxIDKind = ""
)

// BulkScope selects which items a bulk operation applies to.
type BulkScope string

const (
	ScopeAll      BulkScope = "all"
	ScopeSelected BulkScope = "selected"
)

// SelectionState is the derived state of the master selection control.
type SelectionState string

const (
	SelectionNone SelectionState = "none"
	SelectionSome SelectionState = "some"
	SelectionAll  SelectionState = "all"
)

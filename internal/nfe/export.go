package nfe

import (
	"strings"

	"github.com/beevik/etree"

	"nfedit/internal/domain"
	"nfedit/internal/normalize"
)

const (
	exportSuffix      = "_ALTERADA_sem_assinatura.xml"
	exportNoKeyBase   = "NFe_custos"
	exportContentType = "application/xml;charset=utf-8"
	defaultUnit       = "UN"
	xmlDeclaration    = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"
)

// BuildAltered produces the exported copy of a parsed document with the
// current edits applied. The invoice's own tree is never mutated: a deep
// copy receives the changes. Only uCom, vUnCom and vProd of matched items
// are overwritten, plus the recipient CNPJ when valid; every other node
// serializes exactly as parsed.
func BuildAltered(inv *Invoice, items []domain.LineItem, header domain.HeaderInfo) (*domain.ExportFile, error) {
	if inv == nil || inv.Doc == nil {
		return nil, domain.ErrNoDocument
	}

	doc := inv.Doc.Copy()

	// Matching is raw string equality on the item number: "01" and "1"
	// are different items.
	byNumber := make(map[string]domain.LineItem, len(items))
	for _, it := range items {
		byNumber[it.ItemNumber] = it
	}

	for _, det := range doc.FindElements("//det") {
		it, ok := byNumber[det.SelectAttrValue("nItem", "")]
		if !ok {
			continue
		}
		prod := det.FindElement(".//prod")
		if prod == nil {
			continue
		}
		unit := it.Unit
		if unit == "" {
			unit = defaultUnit
		}
		setOrCreate(prod, "uCom", unit)
		setOrCreate(prod, "vUnCom", normalize.FormatXMLNumber(it.UnitCost, 2))
		setOrCreate(prod, "vProd", normalize.FormatXMLNumber(it.LineCostTotal(), 2))
	}

	applyRecipientTaxID(doc, header.RecipientTaxID)

	out, err := doc.WriteToString()
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(inv.RawText, "<?xml") && !strings.HasPrefix(out, "<?xml") {
		out = xmlDeclaration + out
	}

	return &domain.ExportFile{
		Filename:    ExportFilename(header.AccessKey),
		ContentType: exportContentType,
		Data:        []byte(out),
	}, nil
}

// applyRecipientTaxID rewrites the recipient document only when the tag is
// CNPJ and the stored digits pass the 14-digit check: any CPF element is
// removed and the CNPJ written in its place. CPF-tagged or absent ids
// leave the recipient block untouched.
func applyRecipientTaxID(doc *etree.Document, taxID domain.TaxID) {
	if taxID.Kind != domain.TaxIDCNPJ || !normalize.IsValidCNPJ14(taxID.Digits) {
		return
	}
	dest := doc.FindElement("//dest")
	if dest == nil {
		return
	}
	if cpf := dest.FindElement(".//CPF"); cpf != nil {
		if p := cpf.Parent(); p != nil {
			p.RemoveChild(cpf)
		}
	}
	setOrCreate(dest, "CNPJ", taxID.Digits)
}

// setOrCreate overwrites the text of the first matching descendant,
// creating the element as a direct child when it does not exist.
func setOrCreate(parent *etree.Element, tag, value string) {
	el := parent.FindElement(".//" + tag)
	if el == nil {
		el = parent.CreateElement(tag)
	}
	el.SetText(value)
}

// ExportFilename derives the download name from the access key.
func ExportFilename(accessKey string) string {
	base := exportNoKeyBase
	if accessKey != "" {
		base = "NFe_" + accessKey
	}
	return base + exportSuffix
}

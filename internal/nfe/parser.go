// Package nfe parses Brazilian electronic invoice (NF-e) XML into the
// editable domain model and serializes edited copies back out. The
// document tree is kept alongside the extracted records so the exporter
// can overwrite only the touched fields and leave everything else as the
// issuer wrote it.
package nfe

import (
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/beevik/etree"

	"nfedit/internal/domain"
	"nfedit/internal/normalize"
)

// Placeholder values for header and product fields missing from the source.
const (
	unknownName        = "Desconhecido"
	missingProductCode = "Produto não encontrado"
	missingDescription = "Descrição não encontrada"
)

// ParseError indicates the input could not be read as an NF-e document.
// A ParseError never leaves partial state behind.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing NF-e document: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Invoice is a parsed document: the hierarchical tree (read-only until
// export deep-copies it), the decoded source text, and the extracted
// editable records.
type Invoice struct {
	Doc     *etree.Document
	RawText string
	Header  domain.HeaderInfo
	Items   []domain.LineItem
}

// Parse decodes and parses raw document bytes. Malformed markup yields a
// *ParseError; missing optional blocks degrade to placeholder values and
// never fail the parse.
func Parse(raw []byte) (*Invoice, error) {
	text := DecodeBytes(raw)

	doc := etree.NewDocument()
	// Bytes were already transcoded to UTF-8 above; accept any declared
	// charset as-is.
	doc.ReadSettings.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	if err := doc.ReadFromString(text); err != nil {
		return nil, &ParseError{Err: err}
	}
	if doc.Root() == nil {
		return nil, &ParseError{Err: fmt.Errorf("document has no root element")}
	}

	inv := &Invoice{
		Doc:     doc,
		RawText: text,
		Header:  extractHeader(doc),
		Items:   extractItems(doc),
	}
	return inv, nil
}

func extractHeader(doc *etree.Document) domain.HeaderInfo {
	h := domain.HeaderInfo{}

	// Access key: the Id attribute of infNFe minus its literal "NFe"
	// prefix, falling back to the first chNFe element.
	if inf := doc.FindElement("//infNFe"); inf != nil {
		if id := inf.SelectAttrValue("Id", ""); id != "" {
			h.AccessKey = stripKeyPrefix(id)
		}
	}
	if h.AccessKey == "" {
		if ch := doc.FindElement("//chNFe"); ch != nil {
			h.AccessKey = strings.TrimSpace(ch.Text())
		}
	}

	emit := doc.FindElement("//emit")
	dest := doc.FindElement("//dest")
	ide := doc.FindElement("//ide")

	h.IssuerName = nameOf(emit)
	h.RecipientName = nameOf(dest)

	if ide != nil {
		raw := textOf(ide, "dhEmi")
		if raw == "" {
			raw = textOf(ide, "dEmi")
		}
		h.IssueDate = normalize.FormatDateBR(raw)
	}

	h.RecipientTaxID = extractTaxID(dest)
	return h
}

// nameOf reads xNome from a party block, degrading to a placeholder when
// the whole block is absent.
func nameOf(party *etree.Element) string {
	if party == nil {
		log.Printf("nfe: party block missing, using placeholder")
		return unknownName
	}
	return textOf(party, "xNome")
}

// extractTaxID reads the recipient document: CNPJ is checked first, then
// CPF; the first non-empty value wins and is stored digit-only.
func extractTaxID(dest *etree.Element) domain.TaxID {
	if dest == nil {
		return domain.TaxID{Kind: domain.TaxIDNone}
	}
	if cnpj := textOf(dest, "CNPJ"); cnpj != "" {
		return domain.TaxID{Kind: domain.TaxIDCNPJ, Digits: normalize.DigitsOnly(cnpj)}
	}
	if cpf := textOf(dest, "CPF"); cpf != "" {
		return domain.TaxID{Kind: domain.TaxIDCPF, Digits: normalize.DigitsOnly(cpf)}
	}
	return domain.TaxID{Kind: domain.TaxIDNone}
}

func extractItems(doc *etree.Document) []domain.LineItem {
	dets := doc.FindElements("//det")
	items := make([]domain.LineItem, 0, len(dets))
	for _, det := range dets {
		items = append(items, extractItem(det))
	}
	return items
}

func extractItem(det *etree.Element) domain.LineItem {
	item := domain.LineItem{
		ItemNumber:  det.SelectAttrValue("nItem", ""),
		ProductCode: missingProductCode,
		Description: missingDescription,
	}
	prod := det.FindElement(".//prod")
	if prod == nil {
		log.Printf("nfe: det %q has no prod block", item.ItemNumber)
		return item
	}
	item.ProductCode = textOf(prod, "cProd")
	item.Description = textOf(prod, "xProd")
	item.Unit = textOf(prod, "uCom")
	item.Quantity = normalize.ParseNumber(textOf(prod, "qCom"))
	item.OriginalUnitPrice = normalize.ParseNumber(textOf(prod, "vUnCom"))
	item.OriginalLineTotal = normalize.ParseNumber(textOf(prod, "vProd"))
	item.UnitCost = item.OriginalUnitPrice
	return item
}

// textOf returns the trimmed text of the first descendant with the given
// tag, or "" when absent.
func textOf(scope *etree.Element, tag string) string {
	el := scope.FindElement(".//" + tag)
	if el == nil {
		return ""
	}
	return strings.TrimSpace(el.Text())
}

// stripKeyPrefix removes the literal "NFe" prefix from an infNFe Id value.
func stripKeyPrefix(id string) string {
	id = strings.TrimSpace(id)
	if len(id) >= 3 && strings.EqualFold(id[:3], "NFe") {
		return id[3:]
	}
	return id
}

package nfe

import (
	"log"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// prologEncodingPattern matches the encoding pseudo-attribute of an XML
// declaration within the leading ASCII-range bytes of the document.
var prologEncodingPattern = regexp.MustCompile(`(?i)encoding\s*=\s*["']([\w\-]+)["']`)

// prologScanLimit bounds the declaration sniff to the start of the buffer.
const prologScanLimit = 200

// DetectEncoding sniffs the declared character encoding from the document
// prolog. Absent or unrecognizable declarations report "utf-8".
func DetectEncoding(raw []byte) string {
	head := raw
	if len(head) > prologScanLimit {
		head = head[:prologScanLimit]
	}
	m := prologEncodingPattern.FindSubmatch(head)
	if m == nil {
		return "utf-8"
	}
	return strings.ToLower(string(m[1]))
}

// DecodeBytes converts the raw buffer to UTF-8 text honoring the declared
// encoding. Unsupported declarations silently fall back to UTF-8; the
// fallback is logged, never surfaced as an error.
func DecodeBytes(raw []byte) string {
	enc := DetectEncoding(raw)
	switch enc {
	case "utf-8", "utf8":
		return string(raw)
	case "iso-8859-1":
		if out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw); err == nil {
			return string(out)
		}
	case "windows-1252":
		if out, err := charmap.Windows1252.NewDecoder().Bytes(raw); err == nil {
			return string(out)
		}
	default:
		log.Printf("nfe: unsupported encoding %q, falling back to utf-8", enc)
	}
	return string(raw)
}

// Package fits turns decoded wire frames into structured image records.
// The metadata block is a FITS-style textual header; the pixel block is a
// flat little-endian float32 array shaped by NAXIS1 and NAXIS2.
package fits

import (
	"bytes"
	"fmt"
	"strings"
)

// cardLength is the fixed record size of a serialized FITS header.
const cardLength = 80

// Keywords required to reconstruct an image.
const (
	keyWidth     = "NAXIS1"
	keyHeight    = "NAXIS2"
	keyTimestamp = "DATE-OBS"
)

// ParseHeader parses a metadata block into a key/value map. Two layouts are
// accepted: classic 80-byte FITS cards with no separators, and
// newline-separated records. Keys are folded to upper case. Records without
// an '=' (COMMENT, HISTORY, END) are skipped.
func ParseHeader(meta []byte) (map[string]string, error) {
	if len(meta) == 0 {
		return nil, fmt.Errorf("%w: empty metadata block", ErrDecode)
	}

	var records []string
	if bytes.ContainsRune(meta, '\n') {
		records = strings.Split(string(meta), "\n")
	} else {
		records = splitCards(meta)
	}

	header := make(map[string]string, len(records))
	for _, rec := range records {
		key, value, ok := parseCard(rec)
		if !ok {
			continue
		}
		header[key] = value
	}

	if len(header) == 0 {
		return nil, fmt.Errorf("%w: no key/value records in metadata block", ErrDecode)
	}
	return header, nil
}

// splitCards chunks a card-serialized header into 80-byte records. A short
// trailing chunk is kept; astropy pads to a multiple of 80 but the emulated
// streams do not always bother.
func splitCards(meta []byte) []string {
	records := make([]string, 0, len(meta)/cardLength+1)
	for len(meta) > 0 {
		n := cardLength
		if len(meta) < n {
			n = len(meta)
		}
		records = append(records, string(meta[:n]))
		meta = meta[n:]
	}
	return records
}

// parseCard extracts the key and value from one header record, in the form
// KEY = VALUE / comment. Values may be quoted FITS strings.
func parseCard(rec string) (key, value string, ok bool) {
	rec = strings.TrimRight(rec, "\r\x00 ")
	eq := strings.IndexByte(rec, '=')
	if eq < 1 {
		return "", "", false
	}

	key = strings.ToUpper(strings.TrimSpace(rec[:eq]))
	if key == "" || strings.ContainsRune(key, ' ') {
		return "", "", false
	}

	value = strings.TrimSpace(rec[eq+1:])
	if strings.HasPrefix(value, "'") {
		// Quoted string value; the comment separator only counts after the
		// closing quote.
		if end := strings.Index(value[1:], "'"); end >= 0 {
			value = value[1 : end+1]
		} else {
			value = value[1:]
		}
	} else if slash := strings.IndexByte(value, '/'); slash >= 0 {
		value = strings.TrimSpace(value[:slash])
	}

	return key, strings.TrimSpace(value), true
}

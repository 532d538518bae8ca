package period

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Document maps period keys to records. It is loaded and saved as a whole.
type Document map[Key]*Record

// Resolve returns the record for key, creating a fresh one if absent.
// Existing records gain unsent entries for newly configured thresholds.
func (d Document) Resolve(key Key, thresholds []Threshold) (rec *Record, created bool) {
	if rec, ok := d[key]; ok && rec != nil {
		rec.EnsureThresholds(thresholds)
		return rec, false
	}
	rec = NewRecord(thresholds)
	d[key] = rec
	return rec, true
}

// Get returns the record for key.
func (d Document) Get(key Key) (*Record, bool) {
	rec, ok := d[key]
	return rec, ok && rec != nil
}

// Encode serializes the document as indented JSON.
func Encode(d Document) ([]byte, error) {
	if d == nil {
		d = Document{}
	}
	data, err := json.MarshalIndent(d, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses a document. Entries with an invalid key or record are
// dropped and reported as warnings; malformed JSON is an error.
func Decode(data []byte) (Document, []string, error) {
	doc := Document{}
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("decode document: %w", err)
	}

	var warnings []string
	for k, v := range raw {
		key, err := ParseKey(k)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("skipping entry %q: not a YYYY-MM period", k))
			continue
		}
		if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			continue
		}
		var rec Record
		if err := json.Unmarshal(v, &rec); err != nil {
			warnings = append(warnings, fmt.Sprintf("skipping period %s: %v", k, err))
			continue
		}
		doc[key] = &rec
	}
	return doc, warnings, nil
}

package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMalformed reports a persisted document that does not have the
// expected shape.
var ErrMalformed = errors.New("malformed memory document")

// Document is the persisted triple stored under a single key.
type Document struct {
	ShortTerm []ShortTermEntry `json:"shortTerm"`
	LongTerm  LongTermSummary  `json:"longTerm"`
	Sessions  []TherapySession `json:"sessions"`
}

// Clone deep-copies the document.
func (d Document) Clone() Document {
	out := Document{
		ShortTerm: append(make([]ShortTermEntry, 0, len(d.ShortTerm)), d.ShortTerm...),
		LongTerm:  d.LongTerm.Clone(),
		Sessions:  make([]TherapySession, 0, len(d.Sessions)),
	}
	for _, s := range d.Sessions {
		s.KeyTopics = cloneStrings(s.KeyTopics)
		s.Breakthroughs = cloneStrings(s.Breakthroughs)
		s.ActionItems = cloneStrings(s.ActionItems)
		out.Sessions = append(out.Sessions, s)
	}
	return out
}

// Encode serializes the document in the persisted JSON format.
func (d Document) Encode() ([]byte, error) {
	return json.Marshal(d.normalized())
}

// DecodeDocument parses and validates a persisted document. A missing
// longTerm record is replaced by a fresh one created at now; unparsable
// JSON or an entry without id is rejected with ErrMalformed.
func DecodeDocument(raw []byte, now time.Time) (Document, error) {
	var wire struct {
		ShortTerm []ShortTermEntry `json:"shortTerm"`
		LongTerm  *LongTermSummary `json:"longTerm"`
		Sessions  []TherapySession `json:"sessions"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if wire.LongTerm == nil {
		fresh := NewLongTermSummary(now)
		wire.LongTerm = &fresh
	}
	for i, entry := range wire.ShortTerm {
		if entry.ID == "" {
			return Document{}, fmt.Errorf("%w: shortTerm[%d] has no id", ErrMalformed, i)
		}
	}

	doc := Document{ShortTerm: wire.ShortTerm, LongTerm: *wire.LongTerm, Sessions: wire.Sessions}
	return doc.normalized(), nil
}

// normalized replaces nil slices with empty ones so the JSON form always
// carries arrays.
func (d Document) normalized() Document {
	if d.ShortTerm == nil {
		d.ShortTerm = []ShortTermEntry{}
	}
	if d.Sessions == nil {
		d.Sessions = []TherapySession{}
	}
	d.LongTerm = d.LongTerm.Clone()
	return d
}

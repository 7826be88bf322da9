package models

import "encoding/json"

// Entry is one form submission. Entries are immutable once written.
//
// The wire shape is flat: submitter fields sit at the top level next to the
// reserved keys. Reserved keys always win over same-named submitted fields.
type Entry struct {
	FormID    string
	Timestamp int64
	Fields    map[string]any
}

const (
	keyFormID    = "formId"
	keyTimestamp = "timestamp"
)

// MarshalJSON flattens Fields to the top level, applying the reserved keys
// last so a submitted "formId" or "timestamp" can never shadow them.
func (e Entry) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(e.Fields)+2)
	for k, v := range e.Fields {
		m[k] = v
	}
	m[keyFormID] = e.FormID
	m[keyTimestamp] = e.Timestamp
	return json.Marshal(m)
}

// UnmarshalJSON splits the flat wire shape back into reserved keys and the
// open field map.
func (e *Entry) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	if v, ok := m[keyFormID].(string); ok {
		e.FormID = v
	}
	if v, ok := m[keyTimestamp].(float64); ok {
		e.Timestamp = int64(v)
	}
	delete(m, keyFormID)
	delete(m, keyTimestamp)
	e.Fields = m
	return nil
}

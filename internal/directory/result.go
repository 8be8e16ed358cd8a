package directory

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Shape tells which form a lookup response took on the wire.
type Shape int

const (
	// ShapeEmpty covers null, empty and unrecognised bodies.
	ShapeEmpty Shape = iota
	// ShapeSingle is a bare JSON object.
	ShapeSingle
	// ShapeMany is a JSON array of records.
	ShapeMany
)

func (s Shape) String() string {
	switch s {
	case ShapeSingle:
		return "single"
	case ShapeMany:
		return "many"
	default:
		return "empty"
	}
}

// Lookup is the normalised result of a read operation. The directory answers
// some reads with a single object and others with a list; callers only ever
// see this type.
type Lookup struct {
	shape   Shape
	records []User
}

// Single wraps one record.
func Single(u User) Lookup { return Lookup{shape: ShapeSingle, records: []User{u}} }

// Many wraps a list of records, possibly empty.
func Many(us []User) Lookup {
	if us == nil {
		us = []User{}
	}
	return Lookup{shape: ShapeMany, records: us}
}

// Shape reports the wire form of the lookup.
func (l Lookup) Shape() Shape { return l.shape }

// First returns the single record, or the first element of a list.
func (l Lookup) First() (User, bool) {
	if len(l.records) == 0 {
		return User{}, false
	}
	return l.records[0], true
}

// All returns the records of a list response. Single and empty responses
// yield nil.
func (l Lookup) All() []User {
	if l.shape != ShapeMany {
		return nil
	}
	return l.records
}

func decodeLookup(body []byte) (Lookup, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Lookup{}, nil
	}
	switch trimmed[0] {
	case '[':
		var raw []*wireUser
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return Lookup{}, fmt.Errorf("decode record list: %w", err)
		}
		users := make([]User, 0, len(raw))
		for _, w := range raw {
			// null entries are not records
			if w == nil {
				continue
			}
			users = append(users, w.user())
		}
		return Many(users), nil
	case '{':
		var raw wireUser
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return Lookup{}, fmt.Errorf("decode record: %w", err)
		}
		return Single(raw.user()), nil
	default:
		return Lookup{}, nil
	}
}

// WriteResult is the outcome of a write-user call that reached the directory.
type WriteResult struct {
	failed bool
	reason string
	body   json.RawMessage
}

// Ok builds a successful write result.
func Ok(body json.RawMessage) WriteResult { return WriteResult{body: body} }

// Failed builds a write result for a logical failure reported inside a
// successful HTTP response.
func Failed(reason string, body json.RawMessage) WriteResult {
	return WriteResult{failed: true, reason: reason, body: body}
}

// OK reports whether the directory accepted the write.
func (r WriteResult) OK() bool { return !r.failed }

// Reason is the directory's failure message; empty for successful writes.
func (r WriteResult) Reason() string { return r.reason }

// Body is the raw response body.
func (r WriteResult) Body() json.RawMessage { return r.body }

func classifyWrite(body []byte) WriteResult {
	raw := json.RawMessage(bytes.TrimSpace(body))
	if msg, failed := EmbeddedError(body); failed {
		return Failed(msg, raw)
	}
	return Ok(raw)
}

// truthy mirrors JSON truthiness: null, false, 0 and "" are false.
func truthy(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return false
	}
	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		// plain text bodies count as a non-empty string
		return true
	}
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}

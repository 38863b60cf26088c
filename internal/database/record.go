package database

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Record is one flat JSON object inside a collection.
type Record map[string]any

// Document is the whole persisted object keyed by collection name.
type Document map[string][]Record

// Identifier is implemented by the typed ids in models.
type Identifier interface {
	Int64() int64
}

// ID returns the numeric id of the record.
func (r Record) ID() (int64, bool) {
	if r == nil {
		return 0, false
	}
	return ToID(r["id"])
}

// Decode copies the record into v through its JSON form.
func (r Record) Decode(v any) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	return nil
}

func (r Record) clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ToRecord converts a struct or map into a Record with the same JSON shape
// the store persists: numbers become json.Number, nested values become
// maps and slices.
func ToRecord(v any) (Record, error) {
	if v == nil {
		return Record{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	var rec Record
	if err := decodeJSON(data, &rec); err != nil {
		return nil, fmt.Errorf("record must be a JSON object: %w", err)
	}
	if rec == nil {
		rec = Record{}
	}
	return rec, nil
}

// ToID coerces an id given as any numeric type, a numeric string, a
// json.Number or a typed id into int64.
func ToID(v any) (int64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case float32:
		return floatID(float64(x))
	case float64:
		return floatID(x)
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, true
		}
		if f, err := x.Float64(); err == nil {
			return floatID(f)
		}
		return 0, false
	case string:
		s := strings.TrimSpace(x)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return floatID(f)
		}
		return 0, false
	case Identifier:
		return x.Int64(), true
	default:
		return 0, false
	}
}

func floatID(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

func nextID(items []Record) int64 {
	var maxID int64
	for _, item := range items {
		if id, ok := item.ID(); ok && id > maxID {
			maxID = id
		}
	}
	return maxID + 1
}

func indexOf(items []Record, id int64) int {
	for i, item := range items {
		if itemID, ok := item.ID(); ok && itemID == id {
			return i
		}
	}
	return -1
}

// matches reports whether every key in match has an equal value in r.
// Numbers compare by value, so 3, "3" and json.Number("3") are equal.
func matches(r, match Record) bool {
	for k, want := range match {
		got, ok := r[k]
		if !ok {
			return false
		}
		if !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	an, aNum := a.(json.Number)
	bn, bNum := b.(json.Number)
	if aNum && bNum {
		af, errA := an.Float64()
		bf, errB := bn.Float64()
		if errA == nil && errB == nil {
			return af == bf
		}
		return an == bn
	}
	if aNum || bNum {
		ai, okA := ToID(a)
		bi, okB := ToID(b)
		return okA && okB && ai == bi
	}
	return reflect.DeepEqual(a, b)
}

func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

func decodeDocument(data []byte) (Document, error) {
	doc := Document{}
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}
	if err := decodeJSON(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

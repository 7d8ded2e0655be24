package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/roach88/emtrace/internal/event"
)

// typeRecord is the on-disk shape of one event type.
type typeRecord struct {
	Name             string   `json:"name"`
	DataTypes        []string `json:"data_types"`
	DataDescriptions []string `json:"data_descriptions"`
}

// marshalData renders field values as a compact JSON array.
// Integers are written as JSON numbers, strings as JSON strings.
func marshalData(values []event.Value) (string, error) {
	raw := make([]any, len(values))
	for i, v := range values {
		switch v := v.(type) {
		case event.IntValue:
			raw[i] = int64(v)
		case event.StringValue:
			raw[i] = string(v)
		default:
			return "", fmt.Errorf("marshal data: unsupported value %T at index %d", v, i)
		}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(raw); err != nil {
		return "", fmt.Errorf("marshal data: %w", err)
	}
	// Encoder adds a trailing newline
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// unmarshalData parses a JSON array cell back into field values.
// json.Number keeps integers exact past 2^53.
func unmarshalData(cell string) ([]event.Value, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(cell)))
	dec.UseNumber()
	var raw []any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("unmarshal data: %w", err)
	}
	if raw == nil {
		return nil, errors.New("unmarshal data: expected JSON array")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unmarshal data: trailing content after array")
	}
	if len(raw) == 0 {
		return nil, nil
	}

	values := make([]event.Value, len(raw))
	for i, r := range raw {
		switch r := r.(type) {
		case json.Number:
			n, err := r.Int64()
			if err != nil {
				return nil, fmt.Errorf("unmarshal data: index %d: %w", i, err)
			}
			values[i] = event.IntValue(n)
		case string:
			values[i] = event.StringValue(r)
		default:
			return nil, fmt.Errorf("unmarshal data: index %d: unsupported JSON value %T", i, r)
		}
	}
	return values, nil
}

func formatTime(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptionalTime(v *float64) string {
	if v == nil {
		return ""
	}
	return formatTime(*v)
}

func parseOptionalTime(cell string) (*float64, error) {
	if cell == "" {
		return nil, nil
	}
	v, err := parseTime(cell)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// parseTime parses a seconds cell. NaN and infinities are rejected: no
// device clock produces them and they poison the clock fit.
func parseTime(cell string) (float64, error) {
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite time %q", cell)
	}
	return v, nil
}

// marshalTypes renders the types file: one entry per type id plus the
// events digest. Map keys are emitted sorted, so output is deterministic.
func marshalTypes(reg event.Registry, csvHash string) ([]byte, error) {
	doc := make(map[string]any, len(reg)+1)
	for id, et := range reg {
		rec := typeRecord{
			Name:             et.Name,
			DataTypes:        make([]string, len(et.DataTypes)),
			DataDescriptions: make([]string, len(et.DataDescriptions)),
		}
		for i, ft := range et.DataTypes {
			rec.DataTypes[i] = string(ft)
		}
		copy(rec.DataDescriptions, et.DataDescriptions)
		doc[strconv.Itoa(id)] = rec
	}
	doc[hashKey] = csvHash

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("marshal types: %w", err)
	}
	return buf.Bytes(), nil
}

// unmarshalTypes parses a types file into a registry and the recorded
// digest. A missing digest yields an empty string.
func unmarshalTypes(data []byte) (event.Registry, string, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, "", fmt.Errorf("unmarshal types: %w", err)
	}

	var csvHash string
	if raw, ok := doc[hashKey]; ok {
		if err := json.Unmarshal(raw, &csvHash); err != nil {
			return nil, "", fmt.Errorf("unmarshal types: %s: %w", hashKey, err)
		}
		delete(doc, hashKey)
	}

	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	reg := make(event.Registry, len(doc))
	for _, k := range keys {
		id, err := strconv.Atoi(k)
		if err != nil {
			return nil, "", fmt.Errorf("unmarshal types: key %q is not a type id", k)
		}
		var rec typeRecord
		if err := json.Unmarshal(doc[k], &rec); err != nil {
			return nil, "", fmt.Errorf("unmarshal types: type %d: %w", id, err)
		}
		if len(rec.DataTypes) != len(rec.DataDescriptions) {
			return nil, "", fmt.Errorf("unmarshal types: type %d: %d data types but %d descriptions",
				id, len(rec.DataTypes), len(rec.DataDescriptions))
		}
		et := event.EventType{
			ID:               id,
			Name:             rec.Name,
			DataTypes:        make([]event.FieldType, len(rec.DataTypes)),
			DataDescriptions: make([]string, len(rec.DataDescriptions)),
		}
		for i, tag := range rec.DataTypes {
			ft, err := event.ParseFieldType(tag)
			if err != nil {
				return nil, "", fmt.Errorf("unmarshal types: type %d: %w", id, err)
			}
			et.DataTypes[i] = ft
		}
		copy(et.DataDescriptions, rec.DataDescriptions)
		reg[id] = et
	}
	return reg, csvHash, nil
}

package event

import (
	"fmt"
	"slices"
)

// Reserved names understood by the host side.
const (
	// MemAddressTag marks the first data field of a trackable event type.
	MemAddressTag = "_em_mem_address_"

	// ProcessingStartName and ProcessingEndName bracket the processing of
	// a previously submitted trackable event.
	ProcessingStartName = "event_processing_start"
	ProcessingEndName   = "event_processing_end"

	// OverflowName is sent by the device when its trace buffer overflowed.
	// Nothing after it on the stream is well-formed.
	OverflowName = "_em_overflow"
)

// FieldType is the primitive tag of a single event data field.
type FieldType string

const (
	FieldU8     FieldType = "u8"
	FieldS8     FieldType = "s8"
	FieldU16    FieldType = "u16"
	FieldS16    FieldType = "s16"
	FieldU32    FieldType = "u32"
	FieldS32    FieldType = "s32"
	FieldTime   FieldType = "t"
	FieldString FieldType = "s"
)

var fieldWidths = map[FieldType]int{
	FieldU8:     1,
	FieldS8:     1,
	FieldU16:    2,
	FieldS16:    2,
	FieldU32:    4,
	FieldS32:    4,
	FieldTime:   4,
	FieldString: 1, // length prefix; payload follows
}

// ParseFieldType validates a tag from the descriptor handshake.
func ParseFieldType(tag string) (FieldType, error) {
	ft := FieldType(tag)
	if _, ok := fieldWidths[ft]; !ok {
		return "", fmt.Errorf("unknown field type %q", tag)
	}
	return ft, nil
}

// Width returns the fixed byte width of the field. For FieldString this is
// the width of the length prefix only.
func (f FieldType) Width() int {
	return fieldWidths[f]
}

// Signed reports whether the field is a two's complement integer.
func (f FieldType) Signed() bool {
	return f == FieldS8 || f == FieldS16 || f == FieldS32
}

// EventType describes one kind of event announced by the device.
// It is immutable once registered for a session.
type EventType struct {
	ID               int
	Name             string
	DataTypes        []FieldType
	DataDescriptions []string
}

// Trackable reports whether events of this type carry a correlation
// identity in their first data field.
func (t EventType) Trackable() bool {
	return slices.Contains(t.DataDescriptions, MemAddressTag)
}

// Registry maps type ids to their descriptors.
type Registry map[int]EventType

// Lookup returns the id of the type with the given name.
func (r Registry) Lookup(name string) (int, bool) {
	for _, id := range r.IDs() {
		if r[id].Name == name {
			return id, true
		}
	}
	return 0, false
}

// IDs returns the registered ids in ascending order.
func (r Registry) IDs() []int {
	ids := make([]int, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// MaxID returns the largest registered id, or -1 for an empty registry.
func (r Registry) MaxID() int {
	maxID := -1
	for id := range r {
		if id > maxID {
			maxID = id
		}
	}
	return maxID
}

// Clone returns a deep copy of the registry.
func (r Registry) Clone() Registry {
	out := make(Registry, len(r))
	for id, t := range r {
		out[id] = EventType{
			ID:               t.ID,
			Name:             t.Name,
			DataTypes:        slices.Clone(t.DataTypes),
			DataDescriptions: slices.Clone(t.DataDescriptions),
		}
	}
	return out
}

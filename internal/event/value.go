package event

import "strconv"

// Value is a sealed interface over decoded field values.
// Only IntValue and StringValue implement it.
type Value interface {
	fieldValue()
	String() string
}

// IntValue holds any integer field (u8..s32 and t).
type IntValue int64

func (IntValue) fieldValue() {}

func (v IntValue) String() string {
	return strconv.FormatInt(int64(v), 10)
}

// StringValue holds a length-prefixed string field.
type StringValue string

func (StringValue) fieldValue() {}

func (v StringValue) String() string {
	return string(v)
}

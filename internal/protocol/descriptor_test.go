package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/emtrace/internal/event"
	"github.com/roach88/emtrace/internal/testutil"
)

func TestParseDescriptors(t *testing.T) {
	blob := []byte("button_event,1,u16,u8,key_id,pressed\n" +
		"hid_report_event,2,u32,u8,_em_mem_address_,report_id\n" +
		"event_processing_start,3,u32,_em_mem_address_\n" +
		"_em_overflow,6\n" +
		"\n" +
		"ignored,9,u8,after_terminator\n")

	reg, err := ParseDescriptors(blob)
	require.NoError(t, err)
	require.Len(t, reg, 4)

	assert.Equal(t, event.EventType{
		ID:               1,
		Name:             "button_event",
		DataTypes:        []event.FieldType{event.FieldU16, event.FieldU8},
		DataDescriptions: []string{"key_id", "pressed"},
	}, reg[1])
	assert.True(t, reg[2].Trackable())
	assert.Empty(t, reg[6].DataTypes)

	_, ok := reg[9]
	assert.False(t, ok, "lines after the empty line are not descriptors")
}

func TestParseDescriptors_CRLF(t *testing.T) {
	reg, err := ParseDescriptors([]byte("a,0,u8,x\r\nb,1,s,msg\r\n\r\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, reg[0].DataDescriptions)
	assert.Equal(t, []string{"msg"}, reg[1].DataDescriptions)
}

func TestParseDescriptors_Errors(t *testing.T) {
	tests := []struct {
		name string
		blob string
	}{
		{"odd field count", "a,1,u8,u8,x\n\n"},
		{"bad id", "a,one,u8,x\n\n"},
		{"id out of range", "a,256,u8,x\n\n"},
		{"unknown type", "a,1,f32,x\n\n"},
		{"duplicate id", "a,1,u8,x\nb,1,u8,y\n\n"},
		{"missing id", "a\n\n"},
		{"empty name", ",1,u8,x\n\n"},
		{"empty", "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDescriptors([]byte(tt.blob))
			require.Error(t, err)
			assert.True(t, event.IsProtocolError(err), "got %v", err)
		})
	}
}

func TestParseDescriptors_Handshake(t *testing.T) {
	reg := testutil.SampleRegistry()

	parsed, err := ParseDescriptors(testutil.Handshake(reg))
	require.NoError(t, err)
	assert.Equal(t, reg, parsed)
}

package testutil

import "github.com/roach88/emtrace/internal/event"

// Type ids of SampleRegistry.
const (
	SampleButton     = 1
	SampleHIDReport  = 2
	SampleProcStart  = 3
	SampleProcEnd    = 4
	SampleLog        = 5
	SampleOverflow   = 6
	SampleSyncPulse  = 7
	SampleMotionData = 8
)

// SampleRegistry returns a registry resembling a HID firmware trace:
// a plain event, a trackable event, the processing brackets, a string
// event, the overflow marker, a sync pulse and a signed payload event.
func SampleRegistry() event.Registry {
	return event.Registry{
		SampleButton: {
			ID: SampleButton, Name: "button_event",
			DataTypes:        []event.FieldType{event.FieldU16, event.FieldU8},
			DataDescriptions: []string{"key_id", "pressed"},
		},
		SampleHIDReport: {
			ID: SampleHIDReport, Name: "hid_report_event",
			DataTypes:        []event.FieldType{event.FieldU32, event.FieldU8},
			DataDescriptions: []string{event.MemAddressTag, "report_id"},
		},
		SampleProcStart: {
			ID: SampleProcStart, Name: event.ProcessingStartName,
			DataTypes:        []event.FieldType{event.FieldU32},
			DataDescriptions: []string{event.MemAddressTag},
		},
		SampleProcEnd: {
			ID: SampleProcEnd, Name: event.ProcessingEndName,
			DataTypes:        []event.FieldType{event.FieldU32},
			DataDescriptions: []string{event.MemAddressTag},
		},
		SampleLog: {
			ID: SampleLog, Name: "log_event",
			DataTypes:        []event.FieldType{event.FieldString},
			DataDescriptions: []string{"message"},
		},
		SampleOverflow: {
			ID: SampleOverflow, Name: event.OverflowName,
			DataTypes:        []event.FieldType{},
			DataDescriptions: []string{},
		},
		SampleSyncPulse: {
			ID: SampleSyncPulse, Name: "sync_event",
			DataTypes:        []event.FieldType{event.FieldTime},
			DataDescriptions: []string{"device_time"},
		},
		SampleMotionData: {
			ID: SampleMotionData, Name: "motion_event",
			DataTypes:        []event.FieldType{event.FieldS16, event.FieldS16, event.FieldS8, event.FieldS32},
			DataDescriptions: []string{"dx", "dy", "wheel", "accum"},
		},
	}
}

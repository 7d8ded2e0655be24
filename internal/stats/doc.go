// Package stats computes time deltas between event states of a dataset.
//
// A Preset names a start event and an end event, each paired with the
// state whose time is used: submit, start (processing start) or end
// (processing end). Presets are usually loaded from a YAML file:
//
//	presets:
//	  - name: report_latency
//	    start_event: button_event
//	    start_state: submit
//	    end_event: hid_report_event
//	    end_state: end
package stats

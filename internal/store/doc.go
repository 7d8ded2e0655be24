// Package store persists captured datasets as a pair of flat files.
//
// The events file is CSV with one row per tracked event:
//
//	type_id,timestamp,data,proc_start_time,proc_end_time
//
// data holds the decoded field values as a compact JSON array. Missing
// processing times are empty cells. Times are seconds, written with the
// shortest representation that parses back to the same float64.
//
// The types file is a JSON object keyed by decimal type id, each entry
// holding name, data_types and data_descriptions. The reserved key
// "csv_hash" holds the hex MD5 digest of the events file bytes.
//
// # Integrity
//
// The digest is computed after the events file is fully flushed and closed.
// On read a mismatch is reported as an IntegrityWarning alongside the
// dataset; it never prevents loading.
package store

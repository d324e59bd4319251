// Package trace records dispatched guest commands as a CBOR sequence and reads
// them back.
//
// A Recorder implements session.Tracer. Each call becomes one Record encoded
// with core deterministic encoding, so identical calls produce identical bytes
// and a trace file can be diffed or replayed against a fresh session.
package trace

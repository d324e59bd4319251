// Package guest exposes sessions to WASM guests through a wazero host module.
//
// The module, named "hle", exports two functions:
//
//	dispatch(req_ptr, req_len, resp_ptr, resp_cap i32) -> i32
//	close_handle(handle i32) -> i32
//
// dispatch reads a request frame from guest memory, runs it on the session
// and writes the response frame back. It returns the response length, or a
// negative Status when nothing was written. Malformed request frames are
// answered with an InvalidParameters response. close_handle releases a handle
// and returns its result code.
//
// The session is taken from the call context (see WithSession) and falls back
// to the one the Host was created with.
package guest

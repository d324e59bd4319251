// Package ipc defines the guest-facing request/response model.
//
// A Request carries a command identifier, raw input bytes and handles sent by
// the guest. A Response carries a ResultCode, raw output bytes and handle
// descriptors tagged copy or move. On failure only the ResultCode is
// authoritative and the output is empty.
//
// Payloads have a fixed little-endian layout and are read and written with
// Reader and Writer:
//
//	w := ipc.NewWriter()
//	w.U32(1280)
//	w.U32(720)
//
//	r := ipc.NewReader(req.Data)
//	mode, err := r.U32()
//
// MarshalRequest/UnmarshalRequest and MarshalResponse/UnmarshalResponse frame
// whole messages for transports that move raw bytes, such as guest memory.
package ipc

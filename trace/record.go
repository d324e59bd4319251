package trace

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wippyai/hle/ipc"
	"github.com/wippyai/hle/revision"
	"github.com/wippyai/hle/session"
)

// HandleRecord is a response handle descriptor.
type HandleRecord struct {
	Handle uint32         `cbor:"1,keyasint"`
	Mode   ipc.HandleMode `cbor:"2,keyasint"`
}

// Record is one traced command.
type Record struct {
	Session    uuid.UUID         `cbor:"1,keyasint"`
	Revision   revision.Revision `cbor:"2,keyasint"`
	Name       string            `cbor:"3,keyasint,omitempty"`
	Input      []byte            `cbor:"4,keyasint,omitempty"`
	Output     []byte            `cbor:"5,keyasint,omitempty"`
	InHandles  []uint32          `cbor:"6,keyasint,omitempty"`
	OutHandles []HandleRecord    `cbor:"7,keyasint,omitempty"`
	Seq        uint64            `cbor:"8,keyasint"`
	ProcessID  uint64            `cbor:"9,keyasint"`
	StartNanos int64             `cbor:"10,keyasint"`
	Elapsed    time.Duration     `cbor:"11,keyasint"`
	Command    uint32            `cbor:"12,keyasint"`
	Result     ipc.ResultCode    `cbor:"13,keyasint"`
}

func recordFromCall(seq uint64, c session.Call, name string) Record {
	r := Record{
		Session:    c.Session,
		Revision:   c.Revision,
		Name:       name,
		Input:      c.Request.Data,
		Output:     c.Response.Data,
		InHandles:  c.Request.Handles,
		Seq:        seq,
		ProcessID:  c.ProcessID,
		StartNanos: c.Start.UnixNano(),
		Elapsed:    c.Elapsed,
		Command:    c.Request.Command,
		Result:     c.Response.Result,
	}
	for _, h := range c.Response.Handles {
		r.OutHandles = append(r.OutHandles, HandleRecord{Handle: h.Handle, Mode: h.Mode})
	}
	return r
}

// Start returns the dispatch start time.
func (r Record) Start() time.Time {
	return time.Unix(0, r.StartNanos)
}

// Request rebuilds the traced request.
func (r Record) Request() ipc.Request {
	return ipc.Request{Command: r.Command, Data: r.Input, Handles: r.InHandles}
}

// Response rebuilds the traced response.
func (r Record) Response() ipc.Response {
	resp := ipc.Response{Result: r.Result, Data: r.Output}
	for _, h := range r.OutHandles {
		resp.Handles = append(resp.Handles, ipc.HandleDesc{Handle: h.Handle, Mode: h.Mode})
	}
	return resp
}

func (r Record) String() string {
	name := r.Name
	if name == "" {
		name = fmt.Sprintf("cmd#%d", r.Command)
	}
	return fmt.Sprintf("#%d pid=%d %s(%x) -> %s %x handles=%d [%s]",
		r.Seq, r.ProcessID, name, r.Input, r.Result, r.Output, len(r.OutHandles), r.Elapsed)
}

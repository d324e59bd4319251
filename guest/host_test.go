package guest

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/hle/am"
	"github.com/wippyai/hle/apm"
	"github.com/wippyai/hle/errors"
	"github.com/wippyai/hle/handle"
	"github.com/wippyai/hle/ipc"
	"github.com/wippyai/hle/kernel"
	"github.com/wippyai/hle/revision"
	"github.com/wippyai/hle/session"
)

// memoryOnlyWasm is (module (memory (export "memory") 1)).
var memoryOnlyWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x05, 0x03, 0x01, 0x00, 0x01,
	0x07, 0x0a, 0x01, 0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
}

// callerWasm imports hle.dispatch and re-exports it as "call" next to its memory:
//
//	(module
//	  (import "hle" "dispatch" (func $d (param i32 i32 i32 i32) (result i32)))
//	  (memory (export "memory") 1)
//	  (func (export "call") (param i32 i32 i32 i32) (result i32)
//	    local.get 0 local.get 1 local.get 2 local.get 3 call $d))
var callerWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x09, 0x01, 0x60, 0x04, 0x7f, 0x7f, 0x7f, 0x7f, 0x01, 0x7f,
	0x02, 0x10, 0x01, 0x03, 'h', 'l', 'e', 0x08, 'd', 'i', 's', 'p', 'a', 't', 'c', 'h', 0x00, 0x00,
	0x03, 0x02, 0x01, 0x00,
	0x05, 0x03, 0x01, 0x00, 0x01,
	0x07, 0x11, 0x02, 0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00, 0x04, 'c', 'a', 'l', 'l', 0x00, 0x01,
	0x0a, 0x0e, 0x01, 0x0c, 0x00, 0x20, 0x00, 0x20, 0x01, 0x20, 0x02, 0x20, 0x03, 0x10, 0x00, 0x0b,
}

const (
	reqOffset  = 0x100
	respOffset = 0x2000
)

func newSession(t *testing.T, capacity int) *session.State {
	t.Helper()
	s := session.New(session.Options{Revision: revision.V7_0_0, HandleCapacity: capacity})
	power := apm.NewManager(nil, apm.DefaultConfigurations())
	s.Bind(am.NewCommonStateGetter(s, power, kernel.NewEvent("display")).Service())
	return s
}

func newMemoryModule(t *testing.T, ctx context.Context) (api.Module, func()) {
	t.Helper()
	rt := wazero.NewRuntime(ctx)
	mod, err := rt.Instantiate(ctx, memoryOnlyWasm)
	if err != nil {
		rt.Close(ctx)
		t.Fatalf("instantiate: %v", err)
	}
	return mod, func() { rt.Close(ctx) }
}

func TestHost_GuestCall(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	sess := newSession(t, 0)
	if _, err := NewHost(sess).Instantiate(ctx, rt); err != nil {
		t.Fatalf("host module: %v", err)
	}
	mod, err := rt.Instantiate(ctx, callerWasm)
	if err != nil {
		t.Fatalf("guest module: %v", err)
	}

	frame := ipc.MarshalRequest(ipc.Request{Command: am.CmdGetDefaultDisplayResolution})
	if !mod.Memory().Write(reqOffset, frame) {
		t.Fatal("write request")
	}

	res, err := mod.ExportedFunction("call").Call(ctx, reqOffset, uint64(len(frame)), respOffset, MaxResponseSize)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	n := int32(api.DecodeI32(res[0]))
	if n <= 0 {
		t.Fatalf("dispatch returned %s", Status(n))
	}

	out, _ := mod.Memory().Read(respOffset, uint32(n))
	resp, err := ipc.UnmarshalResponse(out)
	if err != nil {
		t.Fatalf("response frame: %v", err)
	}
	if resp.Result != ipc.Success || len(resp.Data) != 8 {
		t.Fatalf("response = %+v", resp)
	}
	if w, h := binary.LittleEndian.Uint32(resp.Data), binary.LittleEndian.Uint32(resp.Data[4:]); w != 1280 || h != 720 {
		t.Fatalf("resolution = %dx%d", w, h)
	}
}

func TestHost_Serve(t *testing.T) {
	ctx := context.Background()
	mod, done := newMemoryModule(t, ctx)
	defer done()
	mem := NewMemory(mod.Memory())

	host := NewHost(newSession(t, 4))

	t.Run("event handle", func(t *testing.T) {
		frame := ipc.MarshalRequest(ipc.Request{Command: am.CmdGetEventHandle})
		if err := mem.Write(reqOffset, frame); err != nil {
			t.Fatal(err)
		}
		n, status := host.Serve(ctx, mem, reqOffset, uint32(len(frame)), respOffset, MaxResponseSize)
		if status != 0 {
			t.Fatalf("status = %s", status)
		}
		out, _ := mem.Read(respOffset, n)
		resp, err := ipc.UnmarshalResponse(out)
		if err != nil {
			t.Fatal(err)
		}
		if len(resp.Handles) != 1 || resp.Handles[0].Mode != ipc.HandleCopy {
			t.Fatalf("handles = %+v", resp.Handles)
		}
	})

	t.Run("malformed frame", func(t *testing.T) {
		if err := mem.Write(reqOffset, []byte{1, 2, 3}); err != nil {
			t.Fatal(err)
		}
		n, status := host.Serve(ctx, mem, reqOffset, 3, respOffset, MaxResponseSize)
		if status != 0 {
			t.Fatalf("status = %s", status)
		}
		out, _ := mem.Read(respOffset, n)
		resp, err := ipc.UnmarshalResponse(out)
		if err != nil {
			t.Fatal(err)
		}
		if resp.Result != ipc.InvalidParameters {
			t.Fatalf("result = %s", resp.Result)
		}
	})

	tests := []struct {
		name    string
		reqPtr  uint32
		reqLen  uint32
		respPtr uint32
		respCap uint32
		want    Status
	}{
		{"small buffer", reqOffset, 12, respOffset, MaxResponseSize - 1, StatusBufferSize},
		{"response outside memory", reqOffset, 12, 0xFFFF, MaxResponseSize, StatusFault},
		{"request outside memory", 0xFFF0, 0x100, respOffset, MaxResponseSize, StatusFault},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, status := host.Serve(ctx, mem, tt.reqPtr, tt.reqLen, tt.respPtr, tt.respCap)
			if status != tt.want {
				t.Fatalf("status = %s, want %s", status, tt.want)
			}
		})
	}
}

func TestHost_SessionResolution(t *testing.T) {
	ctx := context.Background()
	mod, done := newMemoryModule(t, ctx)
	defer done()
	mem := NewMemory(mod.Memory())

	frame := ipc.MarshalRequest(ipc.Request{Command: am.CmdGetBootMode})
	if err := mem.Write(reqOffset, frame); err != nil {
		t.Fatal(err)
	}
	serve := func(h *Host, ctx context.Context) Status {
		_, status := h.Serve(ctx, mem, reqOffset, uint32(len(frame)), respOffset, MaxResponseSize)
		return status
	}

	unbound := NewHost(nil)
	if got := serve(unbound, ctx); got != StatusNoSession {
		t.Fatalf("no session: %s", got)
	}

	sess := newSession(t, 0)
	if got := serve(unbound, WithSession(ctx, sess)); got != 0 {
		t.Fatalf("context session: %s", got)
	}

	if err := sess.Close(); err != nil {
		t.Fatal(err)
	}
	if got := serve(NewHost(sess), ctx); got != StatusNoSession {
		t.Fatalf("closed session: %s", got)
	}
}

type panicSession struct{ handles *handle.Registry }

func (panicSession) Dispatch(context.Context, ipc.Request) (ipc.Response, error) {
	panic("handler bug")
}

func (p panicSession) Handles() *handle.Registry { return p.handles }

func TestHost_RecoversPanic(t *testing.T) {
	ctx := context.Background()
	mod, done := newMemoryModule(t, ctx)
	defer done()
	mem := NewMemory(mod.Memory())

	frame := ipc.MarshalRequest(ipc.Request{Command: 1})
	if err := mem.Write(reqOffset, frame); err != nil {
		t.Fatal(err)
	}

	host := NewHost(panicSession{handles: handle.NewRegistry(1)})
	_, status := host.Serve(ctx, mem, reqOffset, uint32(len(frame)), respOffset, MaxResponseSize)
	if status != StatusInternal {
		t.Fatalf("status = %s", status)
	}
}

func TestHost_CloseHandle(t *testing.T) {
	ctx := context.Background()
	sess := newSession(t, 2)
	host := NewHost(sess)

	h, err := sess.Handles().Allocate(sess.MessageEvent().Readable())
	if err != nil {
		t.Fatal(err)
	}

	if rc := host.CloseHandle(ctx, uint32(h)); rc != ipc.Success {
		t.Fatalf("close = %s", rc)
	}
	if rc := host.CloseHandle(ctx, uint32(h)); rc != ipc.InvalidHandle {
		t.Fatalf("double close = %s", rc)
	}
	if rc := NewHost(nil).CloseHandle(ctx, 1); rc != ipc.InvalidHandle {
		t.Fatalf("no session = %s", rc)
	}

	stack := []uint64{api.EncodeU32(0)}
	host.closeHandle(ctx, nil, stack)
	if ipc.ResultCode(api.DecodeU32(stack[0])) != ipc.InvalidHandle {
		t.Fatalf("handle 0 = %s", ipc.ResultCode(api.DecodeU32(stack[0])))
	}
}

func TestMemory_Bounds(t *testing.T) {
	ctx := context.Background()
	mod, done := newMemoryModule(t, ctx)
	defer done()
	mem := NewMemory(mod.Memory())

	if mem.Size() != 65536 {
		t.Fatalf("size = %d", mem.Size())
	}
	if err := mem.WriteU32(0xFFFC, 0xDEADBEEF); err != nil {
		t.Fatal(err)
	}
	if v, err := mem.ReadU32(0xFFFC); err != nil || v != 0xDEADBEEF {
		t.Fatalf("ReadU32 = %x, %v", v, err)
	}

	if _, err := mem.ReadU32(0xFFFD); !errors.IsKind(err, errors.KindOutOfBounds) {
		t.Fatalf("ReadU32 past end: %v", err)
	}
	if err := mem.Write(0xFFFF, []byte{1, 2}); !errors.IsKind(err, errors.KindOutOfBounds) {
		t.Fatalf("Write past end: %v", err)
	}

	empty := NewMemory(nil)
	if _, err := empty.Read(0, 1); err == nil || empty.Size() != 0 {
		t.Fatal("nil memory should reject reads")
	}
}

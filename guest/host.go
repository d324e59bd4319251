package guest

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/hle"
	"github.com/wippyai/hle/errors"
	"github.com/wippyai/hle/handle"
	"github.com/wippyai/hle/ipc"
)

// ModuleName is the import module guests link against.
const ModuleName = "hle"

// MaxResponseSize is the response buffer a guest must provide to dispatch.
const MaxResponseSize = ipc.HeaderSize + ipc.MaxDataSize + 8*ipc.MaxHandles

// Status is a negative dispatch return value. No response was written.
type Status int32

const (
	StatusFault      Status = -1 // request or response range outside guest memory
	StatusBufferSize Status = -2 // resp_cap below MaxResponseSize
	StatusNoSession  Status = -3 // no session, or the session is closed
	StatusInternal   Status = -4 // the host failed while serving the command
)

func (s Status) String() string {
	switch s {
	case StatusFault:
		return "fault"
	case StatusBufferSize:
		return "buffer-size"
	case StatusNoSession:
		return "no-session"
	case StatusInternal:
		return "internal"
	default:
		return fmt.Sprintf("status(%d)", int32(s))
	}
}

// Session is what the binding needs from a session.
type Session interface {
	Dispatch(ctx context.Context, req ipc.Request) (ipc.Response, error)
	Handles() *handle.Registry
}

type sessionKey struct{}

// WithSession returns a context whose guest calls are served by s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session stored by WithSession.
func SessionFromContext(ctx context.Context) Session {
	s, _ := ctx.Value(sessionKey{}).(Session)
	return s
}

// Host serves the hle module.
type Host struct {
	session Session
}

// NewHost creates a host. fallback serves calls whose context carries no
// session and may be nil.
func NewHost(fallback Session) *Host {
	return &Host{session: fallback}
}

// Instantiate registers the hle module in rt. A runtime holds at most one.
func (h *Host) Instantiate(ctx context.Context, rt wazero.Runtime) (api.Module, error) {
	i32 := api.ValueTypeI32
	builder := rt.NewHostModuleBuilder(ModuleName)
	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(h.dispatch), []api.ValueType{i32, i32, i32, i32}, []api.ValueType{i32}).
		WithParameterNames("req_ptr", "req_len", "resp_ptr", "resp_cap").
		Export("dispatch")
	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(h.closeHandle), []api.ValueType{i32}, []api.ValueType{i32}).
		WithParameterNames("handle").
		Export("close_handle")

	mod, err := builder.Instantiate(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseGuest, errors.KindInvalidInput, err, "instantiate host module")
	}
	return mod, nil
}

func (h *Host) resolve(ctx context.Context) Session {
	if s := SessionFromContext(ctx); s != nil {
		return s
	}
	return h.session
}

func (h *Host) dispatch(ctx context.Context, mod api.Module, stack []uint64) {
	reqPtr := api.DecodeU32(stack[0])
	reqLen := api.DecodeU32(stack[1])
	respPtr := api.DecodeU32(stack[2])
	respCap := api.DecodeU32(stack[3])

	n, status := h.Serve(ctx, NewMemory(mod.Memory()), reqPtr, reqLen, respPtr, respCap)
	if status != 0 {
		stack[0] = api.EncodeI32(int32(status))
		return
	}
	stack[0] = api.EncodeI32(int32(n))
}

// Serve runs one framed request against mem. It is the body of the dispatch
// import, usable with any hle.Memory. A zero Status means n response bytes
// were written at respPtr.
func (h *Host) Serve(ctx context.Context, mem hle.Memory, reqPtr, reqLen, respPtr, respCap uint32) (n uint32, status Status) {
	defer func() {
		if r := recover(); r != nil {
			Logger().Error("panic while serving guest command",
				zap.Any("panic", r),
				zap.Uint32("req_ptr", reqPtr),
				zap.Uint32("req_len", reqLen))
			n, status = 0, StatusInternal
		}
	}()

	if respCap < MaxResponseSize {
		return 0, StatusBufferSize
	}
	if uint64(respPtr)+uint64(respCap) > uint64(mem.Size()) {
		return 0, StatusFault
	}
	sess := h.resolve(ctx)
	if sess == nil {
		return 0, StatusNoSession
	}

	frame, err := mem.Read(reqPtr, reqLen)
	if err != nil {
		Logger().Debug("request outside guest memory", zap.Error(err))
		return 0, StatusFault
	}

	var resp ipc.Response
	req, err := ipc.UnmarshalRequest(frame)
	if err != nil {
		Logger().Debug("malformed request frame", zap.Error(err))
		resp = ipc.Failed(ipc.InvalidParameters)
	} else {
		resp, err = sess.Dispatch(ctx, req)
		if err != nil {
			Logger().Debug("session rejected request",
				zap.Uint32("cmd", req.Command),
				zap.Error(err))
			return 0, StatusNoSession
		}
	}

	out := ipc.MarshalResponse(resp)
	if err := mem.Write(respPtr, out); err != nil {
		Logger().Warn("response write failed", zap.Error(err))
		return 0, StatusFault
	}
	return uint32(len(out)), 0
}

func (h *Host) closeHandle(ctx context.Context, _ api.Module, stack []uint64) {
	rc := h.CloseHandle(ctx, api.DecodeU32(stack[0]))
	stack[0] = api.EncodeU32(uint32(rc))
}

// CloseHandle releases handle in the calling session.
func (h *Host) CloseHandle(ctx context.Context, hnd uint32) ipc.ResultCode {
	sess := h.resolve(ctx)
	if sess == nil {
		return ipc.InvalidHandle
	}
	if err := sess.Handles().Release(handle.Handle(hnd)); err != nil {
		Logger().Debug("close_handle failed", zap.Uint32("handle", hnd), zap.Error(err))
		return ipc.ResultFromError(err)
	}
	return ipc.Success
}

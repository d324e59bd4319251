package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/hle/errors"
	"github.com/wippyai/hle/handle"
	"github.com/wippyai/hle/ipc"
	"github.com/wippyai/hle/kernel"
	"github.com/wippyai/hle/revision"
	"github.com/wippyai/hle/service"
)

// Options configures a new session.
type Options struct {
	Docked         DockedSource
	Events         kernel.EventFactory
	Tracer         Tracer
	ProcessID      uint64
	HandleCapacity int
	Revision       revision.Revision
	VRMode         bool
}

// State is everything one connected client owns: its handle table, message
// queue, focus and feature flags. Commands on one State run one at a time.
type State struct {
	docked   DockedSource
	tracer   Tracer
	svc      service.Service
	handles  *handle.Registry
	messages *MessageQueue
	onClose  func(*State)
	id       uuid.UUID
	pid      uint64
	rev      revision.Revision
	focus    atomic.Uint32
	vr       atomic.Bool
	mu       sync.Mutex // serializes Dispatch and Close
	closed   bool
}

// New creates a session. Most callers go through Manager.Open.
func New(opts Options) *State {
	events := opts.Events
	if events == nil {
		events = &kernel.Factory{}
	}

	s := &State{
		docked:   opts.Docked,
		tracer:   opts.Tracer,
		handles:  handle.NewRegistry(opts.HandleCapacity),
		messages: NewMessageQueue(events.NewEvent("am:message")),
		id:       uuid.New(),
		pid:      opts.ProcessID,
		rev:      opts.Revision,
	}
	s.focus.Store(uint32(FocusInFocus))
	s.vr.Store(opts.VRMode)
	return s
}

func (s *State) ID() uuid.UUID               { return s.id }
func (s *State) ProcessID() uint64           { return s.pid }
func (s *State) Revision() revision.Revision { return s.rev }
func (s *State) Handles() *handle.Registry   { return s.handles }
func (s *State) Messages() *MessageQueue     { return s.messages }
func (s *State) MessageEvent() *kernel.Event { return s.messages.Event() }
func (s *State) VRModeEnabled() bool         { return s.vr.Load() }
func (s *State) SetVRMode(enabled bool)      { s.vr.Store(enabled) }
func (s *State) FocusState() FocusState      { return FocusState(s.focus.Load()) }

// OperationMode reads the external docked flag.
func (s *State) OperationMode() OperationMode {
	if s.docked != nil && s.docked.Docked() {
		return OperationModeDocked
	}
	return OperationModeHandheld
}

// SetFocus changes the focus state and queues FocusStateChanged when it differs.
func (s *State) SetFocus(f FocusState) {
	if FocusState(s.focus.Swap(uint32(f))) != f {
		s.messages.Push(MessageFocusStateChanged)
	}
}

// NotifyOperationModeChanged queues the messages an applet receives when the
// console is docked or undocked.
func (s *State) NotifyOperationModeChanged() {
	s.messages.Push(MessageOperationModeChanged)
	s.messages.Push(MessagePerformanceModeChanged)
}

// PushMessage queues m for ReceiveMessage.
func (s *State) PushMessage(m Message) {
	s.messages.Push(m)
}

// Bind attaches the service answering this session's commands.
func (s *State) Bind(svc service.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.svc = svc
}

// Dispatch runs one command to completion. The returned error is set only when
// the session cannot serve requests at all; command failures are in the response.
func (s *State) Dispatch(ctx context.Context, req ipc.Request) (ipc.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ipc.Response{}, errors.Closed(errors.PhaseSession, "session")
	}
	if s.svc == nil {
		return ipc.Response{}, errors.New(errors.PhaseSession, errors.KindNotFound).
			Op("dispatch").
			Detail("no service bound to session %s", s.id).
			Build()
	}

	start := time.Now()
	resp := s.svc.Dispatch(ctx, s.rev, req)

	if s.tracer != nil {
		s.tracer.TraceCall(Call{
			Start:     start,
			Request:   req,
			Response:  resp,
			Session:   s.id,
			ProcessID: s.pid,
			Elapsed:   time.Since(start),
			Revision:  s.rev,
		})
	}
	return resp, nil
}

// Close drops every handle mapping and detaches the session from its manager.
// Kernel objects stay alive; they are owned elsewhere.
func (s *State) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.svc = nil
	onClose := s.onClose
	s.mu.Unlock()

	err := s.handles.Close()
	if onClose != nil {
		onClose(s)
	}
	Logger().Debug("session closed",
		zap.Stringer("session", s.id),
		zap.Uint64("pid", s.pid))
	return err
}

// Closed reports whether Close has run.
func (s *State) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

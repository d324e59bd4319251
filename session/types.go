package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/wippyai/hle/ipc"
	"github.com/wippyai/hle/revision"
)

// OperationMode is how the console is being used.
type OperationMode uint8

const (
	OperationModeHandheld OperationMode = 0
	OperationModeDocked   OperationMode = 1
)

func (m OperationMode) String() string {
	if m == OperationModeDocked {
		return "docked"
	}
	return "handheld"
}

// FocusState is whether the applet owns the foreground.
type FocusState uint8

const (
	FocusInFocus    FocusState = 1
	FocusOutOfFocus FocusState = 2
)

func (f FocusState) String() string {
	switch f {
	case FocusInFocus:
		return "in-focus"
	case FocusOutOfFocus:
		return "out-of-focus"
	default:
		return "unknown"
	}
}

// Message is an applet message code delivered through ReceiveMessage.
type Message uint32

const (
	MessageExitRequested          Message = 4
	MessageFocusStateChanged      Message = 15
	MessageResume                 Message = 16
	MessageOperationModeChanged   Message = 30
	MessagePerformanceModeChanged Message = 31
)

func (m Message) String() string {
	switch m {
	case MessageExitRequested:
		return "exit-requested"
	case MessageFocusStateChanged:
		return "focus-state-changed"
	case MessageResume:
		return "resume"
	case MessageOperationModeChanged:
		return "operation-mode-changed"
	case MessagePerformanceModeChanged:
		return "performance-mode-changed"
	default:
		return "unknown"
	}
}

// DockedSource reports the external docked flag.
type DockedSource interface {
	Docked() bool
}

// Call is one dispatched command as seen by a Tracer.
type Call struct {
	Start     time.Time
	Request   ipc.Request
	Response  ipc.Response
	Session   uuid.UUID
	ProcessID uint64
	Elapsed   time.Duration
	Revision  revision.Revision
}

// Tracer observes every dispatched command after it completes.
type Tracer interface {
	TraceCall(Call)
}

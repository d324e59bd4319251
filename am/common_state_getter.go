package am

import (
	"go.uber.org/zap"

	"github.com/wippyai/hle/apm"
	"github.com/wippyai/hle/handle"
	"github.com/wippyai/hle/ipc"
	"github.com/wippyai/hle/kernel"
	"github.com/wippyai/hle/service"
	"github.com/wippyai/hle/session"
)

// Default display resolution reported regardless of the operation mode.
const (
	DefaultDisplayWidth  = 1280
	DefaultDisplayHeight = 720
)

// Session is the per-client state the service reads and mutates.
type Session interface {
	Handles() *handle.Registry
	Messages() *session.MessageQueue
	MessageEvent() *kernel.Event
	OperationMode() session.OperationMode
	FocusState() session.FocusState
	VRModeEnabled() bool
}

// PowerManager is the power-management capability the service delegates to.
type PowerManager interface {
	GetPerformanceMode() (apm.PerformanceMode, error)
	SetCpuBoostMode(apm.CpuBoostMode) error
	GetCurrentPerformanceConfiguration() (apm.PerformanceConfiguration, error)
}

// BoostModeHook runs after a CPU boost mode change has been accepted.
type BoostModeHook func(mode apm.CpuBoostMode)

// Option configures a CommonStateGetter.
type Option func(*CommonStateGetter)

// WithBoostModeHook installs the hook run on accepted SetCpuBoostMode calls.
func WithBoostModeHook(h BoostModeHook) Option {
	return func(g *CommonStateGetter) {
		if h != nil {
			g.onBoost = h
		}
	}
}

// CommonStateGetter answers ICommonStateGetter commands for one session.
type CommonStateGetter struct {
	session      Session
	power        PowerManager
	displayEvent *kernel.Event
	onBoost      BoostModeHook
}

// NewCommonStateGetter creates the service for sess. displayEvent is the
// system-wide display resolution change event.
func NewCommonStateGetter(sess Session, power PowerManager, displayEvent *kernel.Event, opts ...Option) *CommonStateGetter {
	g := &CommonStateGetter{
		session:      sess,
		power:        power,
		displayEvent: displayEvent,
		onBoost:      logBoostMode,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Service binds g to the command table.
func (g *CommonStateGetter) Service() service.Service {
	return service.Bind(commandTable, g)
}

// TODO: the real service signals an internal event on boost mode changes;
// replace this once a consumer of that event is identified.
func logBoostMode(mode apm.CpuBoostMode) {
	Logger().Debug("cpu boost mode changed", zap.Stringer("mode", mode))
}

func (g *CommonStateGetter) copyHandle(c *service.Context, obj kernel.Object) ipc.ResultCode {
	h, err := g.session.Handles().Allocate(obj)
	if err != nil {
		Logger().Warn("handle allocation failed",
			zap.Uint32("cmd", c.Command),
			zap.Error(err))
		return ipc.ResultFromError(err)
	}
	c.CopyHandle(uint32(h))
	return ipc.Success
}

func (g *CommonStateGetter) getEventHandle(c *service.Context) ipc.ResultCode {
	return g.copyHandle(c, g.session.MessageEvent().Readable())
}

func (g *CommonStateGetter) receiveMessage(c *service.Context) ipc.ResultCode {
	m, ok := g.session.Messages().TryPop()
	if !ok {
		return ipc.NoMessagesPending
	}
	c.Out.U32(uint32(m))
	return ipc.Success
}

func (g *CommonStateGetter) getOperationMode(c *service.Context) ipc.ResultCode {
	c.Out.U8(uint8(g.session.OperationMode()))
	return ipc.Success
}

func (g *CommonStateGetter) getPerformanceMode(c *service.Context) ipc.ResultCode {
	mode, err := g.power.GetPerformanceMode()
	if err != nil {
		return ipc.ResultFromError(err)
	}
	c.Out.S32(int32(mode))
	return ipc.Success
}

func (g *CommonStateGetter) getBootMode(c *service.Context) ipc.ResultCode {
	c.Out.U8(0)
	Logger().Debug("stub", zap.String("command", "GetBootMode"))
	return ipc.Success
}

func (g *CommonStateGetter) getCurrentFocusState(c *service.Context) ipc.ResultCode {
	c.Out.U8(uint8(g.session.FocusState()))
	return ipc.Success
}

func (g *CommonStateGetter) isVrModeEnabled(c *service.Context) ipc.ResultCode {
	c.Out.Bool(g.session.VRModeEnabled())
	return ipc.Success
}

func (g *CommonStateGetter) getDefaultDisplayResolution(c *service.Context) ipc.ResultCode {
	c.Out.U32(DefaultDisplayWidth)
	c.Out.U32(DefaultDisplayHeight)
	return ipc.Success
}

func (g *CommonStateGetter) getDefaultDisplayResolutionChangeEvent(c *service.Context) ipc.ResultCode {
	rc := g.copyHandle(c, g.displayEvent.Readable())
	Logger().Debug("stub", zap.String("command", "GetDefaultDisplayResolutionChangeEvent"))
	return rc
}

func (g *CommonStateGetter) setCpuBoostMode(c *service.Context) ipc.ResultCode {
	v, err := c.In.U32()
	if err != nil || v > uint32(apm.CpuBoostFastLoad) {
		return ipc.InvalidParameters
	}

	mode := apm.CpuBoostMode(v)
	if err := g.power.SetCpuBoostMode(mode); err != nil {
		return ipc.ResultFromError(err)
	}
	g.onBoost(mode)
	return ipc.Success
}

func (g *CommonStateGetter) getCurrentPerformanceConfiguration(c *service.Context) ipc.ResultCode {
	cfg, err := g.power.GetCurrentPerformanceConfiguration()
	if err != nil {
		return ipc.ResultFromError(err)
	}
	c.Out.U32(uint32(cfg))
	return ipc.Success
}

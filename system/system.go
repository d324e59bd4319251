// Package system wires the services together: the shared power manager, the
// system-wide display resolution event, the session manager and the optional
// call trace, all configured from a config.Config.
package system

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/hle/am"
	"github.com/wippyai/hle/apm"
	"github.com/wippyai/hle/config"
	"github.com/wippyai/hle/kernel"
	"github.com/wippyai/hle/revision"
	"github.com/wippyai/hle/session"
	"github.com/wippyai/hle/trace"
)

// DockedSource reports the external docked flag.
type DockedSource interface {
	Docked() bool
}

// StaticDock is a DockedSource set in code.
type StaticDock struct {
	docked atomic.Bool
}

func (d *StaticDock) Docked() bool        { return d.docked.Load() }
func (d *StaticDock) SetDocked(dock bool) { d.docked.Store(dock) }

// Option configures a System.
type Option func(*System)

// WithDockedSource replaces the docked flag taken from the configuration.
func WithDockedSource(src DockedSource) Option {
	return func(s *System) { s.docked = src }
}

// WithTracer traces every call on every session. It takes precedence over
// the configured trace path.
func WithTracer(t session.Tracer) Option {
	return func(s *System) { s.tracer = t }
}

// WithFirmware overrides the configured firmware revision.
func WithFirmware(rev revision.Revision) Option {
	return func(s *System) { s.cfg.FirmwareRevision = rev }
}

// WithBoostModeHook is passed to every CommonStateGetter.
func WithBoostModeHook(h am.BoostModeHook) Option {
	return func(s *System) { s.boostHook = h }
}

// System owns everything shared between sessions.
type System struct {
	cfg          config.Config
	docked       DockedSource
	tracer       session.Tracer
	recorder     *trace.Recorder
	boostHook    am.BoostModeHook
	power        *apm.Manager
	events       *kernel.Factory
	displayEvent *kernel.Event
	sessions     *session.Manager
	closeOnce    sync.Once
}

// New builds a system from cfg.
func New(cfg config.Config, opts ...Option) (*System, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &System{cfg: cfg, events: &kernel.Factory{}}
	for _, opt := range opts {
		opt(s)
	}
	cfg = s.cfg

	if s.docked == nil {
		dock := &StaticDock{}
		dock.SetDocked(cfg.Docked)
		s.docked = dock
	}
	if s.tracer == nil && cfg.Trace.Path != "" {
		rec, err := trace.Create(cfg.Trace.Path, am.CommandName)
		if err != nil {
			return nil, err
		}
		s.recorder = rec
		s.tracer = rec
	}

	s.power = apm.NewManager(s.docked, cfg.Configurations())
	s.displayEvent = s.events.NewEvent("display:resolution-change")
	s.sessions = session.NewManager(cfg.MaxSessions, session.Options{
		Docked:         s.docked,
		Events:         s.events,
		Tracer:         s.tracer,
		HandleCapacity: cfg.HandleTableSize,
		Revision:       cfg.FirmwareRevision,
		VRMode:         cfg.VRMode,
	})

	Logger().Info("system ready",
		zap.Stringer("firmware", cfg.FirmwareRevision),
		zap.Int("max_sessions", s.sessions.Max()),
		zap.Int("handle_table_size", cfg.HandleTableSize),
		zap.Bool("trace", s.tracer != nil))
	return s, nil
}

// FromConfig builds a system whose docked and VR flags follow m, including
// reloads while m is watched.
func FromConfig(m *config.Manager, opts ...Option) (*System, error) {
	opts = append([]Option{WithDockedSource(m)}, opts...)
	s, err := New(m.Current(), opts...)
	if err != nil {
		return nil, err
	}
	m.OnChange(s.applyChange)
	return s, nil
}

func (s *System) applyChange(c config.Change) {
	if c.DockedChanged() {
		Logger().Info("operation mode changed", zap.Bool("docked", c.New.Docked))
		s.sessions.NotifyOperationModeChanged()
	}
	if c.Old.VRMode != c.New.VRMode {
		s.sessions.Each(func(st *session.State) bool {
			st.SetVRMode(c.New.VRMode)
			return true
		})
	}
}

// Connect opens a session for process pid with the applet services bound.
func (s *System) Connect(pid uint64) (*session.State, error) {
	st, err := s.sessions.Open(pid)
	if err != nil {
		return nil, err
	}

	var opts []am.Option
	if s.boostHook != nil {
		opts = append(opts, am.WithBoostModeHook(s.boostHook))
	}
	st.Bind(am.NewCommonStateGetter(st, s.power, s.displayEvent, opts...).Service())
	return st, nil
}

// SetDocked changes the docked flag when the source is a StaticDock and
// notifies every session. It reports whether the flag could be set.
func (s *System) SetDocked(docked bool) bool {
	dock, ok := s.docked.(*StaticDock)
	if !ok {
		return false
	}
	if dock.Docked() != docked {
		dock.SetDocked(docked)
		s.sessions.NotifyOperationModeChanged()
	}
	return true
}

// SignalDisplayResolutionChange signals the display resolution change event.
func (s *System) SignalDisplayResolutionChange() {
	s.displayEvent.Signal()
}

func (s *System) Config() config.Config       { return s.cfg }
func (s *System) Firmware() revision.Revision { return s.cfg.FirmwareRevision }
func (s *System) Power() *apm.Manager         { return s.power }
func (s *System) Sessions() *session.Manager  { return s.sessions }
func (s *System) DisplayEvent() *kernel.Event { return s.displayEvent }
func (s *System) Docked() bool                { return s.docked.Docked() }
func (s *System) EventsCreated() int64        { return s.events.Created() }
func (s *System) Recorder() *trace.Recorder   { return s.recorder }

// Close closes every session and the trace file.
func (s *System) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.sessions.Close()
		if s.recorder != nil {
			if rerr := s.recorder.Close(); rerr != nil && err == nil {
				err = rerr
			}
		}
		Logger().Debug("system closed")
	})
	return err
}

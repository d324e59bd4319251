package config

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/wippyai/hle/errors"
	"github.com/wippyai/hle/revision"
)

// Change describes a successful reload.
type Change struct {
	Old Config
	New Config
}

// DockedChanged reports whether the reload toggled the docked flag.
func (c Change) DockedChanged() bool { return c.Old.Docked != c.New.Docked }

// Manager owns the viper instance and the live configuration.
//
// Docked and VRMode are read on every guest command, so they are kept in
// atomics that a reload, SetDocked or SetVRMode updates in place.
type Manager struct {
	v           *viper.Viper
	current     Config
	subscribers []func(Change)
	path        string
	docked      atomic.Bool
	vr          atomic.Bool
	mu          sync.RWMutex
	watching    bool
}

// New creates a manager for the file at path. An empty path looks for an
// optional hle.yaml in the working directory.
func New(path string) *Manager {
	v := viper.New()
	v.SetConfigType(configType)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(defaultConfigName)
		v.AddConfigPath(defaultConfigDirPath)
	}
	for k, val := range defaults() {
		v.SetDefault(k, val)
	}
	return &Manager{v: v, path: path}
}

// Load reads the file and replaces the current configuration.
func (m *Manager) Load() error {
	if err := m.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if m.path != "" || !stderrors.As(err, &notFound) {
			Logger().Warn("failed to read config", zap.String("path", m.path), zap.Error(err))
			return errors.Wrap(errors.PhaseConfig, errors.KindIO, err, "read config")
		}
		Logger().Debug("no config file, using defaults")
	}

	cfg, err := m.decode()
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.current = cfg
	m.mu.Unlock()
	m.docked.Store(cfg.Docked)
	m.vr.Store(cfg.VRMode)

	Logger().Info("loaded config",
		zap.String("file", m.v.ConfigFileUsed()),
		zap.Stringer("firmware", cfg.FirmwareRevision),
		zap.Bool("docked", cfg.Docked),
		zap.Int("handle_table_size", cfg.HandleTableSize),
		zap.Int("max_sessions", cfg.MaxSessions))
	return nil
}

func (m *Manager) decode() (Config, error) {
	var cfg Config
	err := m.v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.DecodeHookFuncType(numericRevisionHook),
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	)), func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = false
	})
	if err != nil {
		return Config{}, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// numericRevisionHook decodes an unquoted YAML number such as 7 or 6.2 into a
// revision, the same way the quoted string would be.
func numericRevisionHook(from, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(revision.Revision(0)) {
		return data, nil
	}
	switch from.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return revision.Parse(fmt.Sprint(data))
	default:
		return data, nil
	}
}

// Current returns a copy of the loaded configuration. Docked and VRMode
// reflect the live values.
func (m *Manager) Current() Config {
	m.mu.RLock()
	cfg := m.current
	m.mu.RUnlock()
	cfg.Docked = m.docked.Load()
	cfg.VRMode = m.vr.Load()
	return cfg
}

// Docked reports the live docked flag.
func (m *Manager) Docked() bool {
	return m.docked.Load()
}

// VRMode reports the live VR flag.
func (m *Manager) VRMode() bool {
	return m.vr.Load()
}

// SetDocked overrides the docked flag until the next reload and notifies
// subscribers when it changes.
func (m *Manager) SetDocked(docked bool) {
	old := m.Current()
	if m.docked.Swap(docked) == docked {
		return
	}
	next := old
	next.Docked = docked
	m.notify(Change{Old: old, New: next})
}

// SetVRMode overrides the VR flag until the next reload and notifies
// subscribers when it changes.
func (m *Manager) SetVRMode(enabled bool) {
	old := m.Current()
	if m.vr.Swap(enabled) == enabled {
		return
	}
	next := old
	next.VRMode = enabled
	m.notify(Change{Old: old, New: next})
}

// OnChange registers fn to run after every successful reload, dock toggle or
// VR toggle.
func (m *Manager) OnChange(fn func(Change)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}

// Reload re-reads the file. On failure the previous configuration stays.
func (m *Manager) Reload() error {
	old := m.Current()
	if err := m.Load(); err != nil {
		return err
	}
	m.notify(Change{Old: old, New: m.Current()})
	return nil
}

// Watch reloads the configuration whenever the file is written.
func (m *Manager) Watch() {
	m.mu.Lock()
	if m.watching {
		m.mu.Unlock()
		return
	}
	m.watching = true
	m.mu.Unlock()

	m.v.OnConfigChange(m.handleEvent)
	m.v.WatchConfig()
	Logger().Debug("watching config", zap.String("file", m.v.ConfigFileUsed()))
}

func (m *Manager) handleEvent(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return
	}
	Logger().Debug("config file changed", zap.String("event", ev.String()))
	if err := m.Reload(); err != nil {
		Logger().Warn("config reload failed", zap.Error(err))
	}
}

func (m *Manager) notify(c Change) {
	m.mu.RLock()
	subs := append([]func(Change){}, m.subscribers...)
	m.mu.RUnlock()
	for _, fn := range subs {
		fn(c)
	}
}

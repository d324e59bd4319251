package apm

import (
	"sync"

	"github.com/wippyai/hle/errors"
)

// Configurations selects the performance configuration per state.
type Configurations struct {
	Normal   PerformanceConfiguration
	Boost    PerformanceConfiguration
	FastLoad PerformanceConfiguration
}

// DefaultConfigurations returns the stock configuration set.
func DefaultConfigurations() Configurations {
	return Configurations{
		Normal:   PerformanceConfiguration7,
		Boost:    PerformanceConfiguration8,
		FastLoad: PerformanceConfiguration13,
	}
}

// Manager is the power-management state shared by all sessions.
type Manager struct {
	docked  DockedSource
	configs Configurations
	boost   CpuBoostMode
	mu      sync.Mutex
}

// NewManager creates a manager reading the docked state from docked.
func NewManager(docked DockedSource, configs Configurations) *Manager {
	return &Manager{
		docked:  docked,
		configs: configs,
	}
}

// GetPerformanceMode derives the mode from the docked state.
func (m *Manager) GetPerformanceMode() (PerformanceMode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.modeLocked(), nil
}

// SetCpuBoostMode stores the requested boost mode.
func (m *Manager) SetCpuBoostMode(mode CpuBoostMode) error {
	if mode > CpuBoostPowerSaving {
		return errors.OutOfRange(errors.PhaseDispatch, "cpu_boost_mode", int64(mode), int64(CpuBoostDisabled), int64(CpuBoostPowerSaving))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.boost = mode
	return nil
}

// CpuBoostMode returns the stored boost mode.
func (m *Manager) CpuBoostMode() CpuBoostMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.boost
}

// GetCurrentPerformanceConfiguration maps the boost and performance modes to a
// configuration. Fast-load boost overrides the mode.
func (m *Manager) GetCurrentPerformanceConfiguration() (PerformanceConfiguration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.boost == CpuBoostFastLoad {
		return m.configs.FastLoad, nil
	}
	return m.configLocked(m.modeLocked())
}

// GetPerformanceConfiguration returns the configuration assigned to mode.
func (m *Manager) GetPerformanceConfiguration(mode PerformanceMode) (PerformanceConfiguration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.configLocked(mode)
}

// SetPerformanceConfiguration assigns cfg to mode.
func (m *Manager) SetPerformanceConfiguration(mode PerformanceMode, cfg PerformanceConfiguration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch mode {
	case PerformanceModeNormal:
		m.configs.Normal = cfg
	case PerformanceModeBoost:
		m.configs.Boost = cfg
	default:
		return errors.New(errors.PhaseDispatch, errors.KindInvalidInput).
			Op("set performance configuration").
			Value(mode).
			Detail("invalid performance mode %d", int32(mode)).
			Build()
	}
	return nil
}

func (m *Manager) modeLocked() PerformanceMode {
	if m.docked != nil && m.docked.Docked() {
		return PerformanceModeBoost
	}
	return PerformanceModeNormal
}

func (m *Manager) configLocked(mode PerformanceMode) (PerformanceConfiguration, error) {
	switch mode {
	case PerformanceModeNormal:
		return m.configs.Normal, nil
	case PerformanceModeBoost:
		return m.configs.Boost, nil
	default:
		return 0, errors.New(errors.PhaseDispatch, errors.KindInvalidInput).
			Op("get performance configuration").
			Value(mode).
			Detail("invalid performance mode %d", int32(mode)).
			Build()
	}
}

// Package config loads host settings from a YAML file through viper and keeps
// the live values that guests observe, such as the docked flag, in sync with
// the file while it is watched.
package config

import (
	"github.com/wippyai/hle/apm"
	"github.com/wippyai/hle/errors"
	"github.com/wippyai/hle/handle"
	"github.com/wippyai/hle/revision"
	"github.com/wippyai/hle/session"
)

// Config keys.
const (
	KeyFirmwareRevision  = "firmware_revision"
	KeyDocked            = "docked"
	KeyVRMode            = "vr_mode"
	KeyHandleTableSize   = "handle_table_size"
	KeyMaxSessions       = "max_sessions"
	KeyAPMDefault        = "apm.default_configuration"
	KeyAPMBoost          = "apm.boost_configuration"
	KeyAPMFastLoad       = "apm.fast_load_configuration"
	KeyLogLevel          = "log.level"
	KeyTracePath         = "trace.path"
	DefaultFirmware      = "7.0.0"
	DefaultLogLevel      = "info"
	configType           = "yaml"
	defaultConfigName    = "hle"
	defaultConfigDirPath = "."
)

// Config is the decoded configuration file.
type Config struct {
	FirmwareRevision revision.Revision `mapstructure:"firmware_revision"`
	Docked           bool              `mapstructure:"docked"`
	VRMode           bool              `mapstructure:"vr_mode"`
	HandleTableSize  int               `mapstructure:"handle_table_size"`
	MaxSessions      int               `mapstructure:"max_sessions"`

	APM struct {
		DefaultConfiguration  apm.PerformanceConfiguration `mapstructure:"default_configuration"`
		BoostConfiguration    apm.PerformanceConfiguration `mapstructure:"boost_configuration"`
		FastLoadConfiguration apm.PerformanceConfiguration `mapstructure:"fast_load_configuration"`
	} `mapstructure:"apm"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`

	Trace struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"trace"`
}

// Configurations returns the apm configuration set.
func (c Config) Configurations() apm.Configurations {
	return apm.Configurations{
		Normal:   c.APM.DefaultConfiguration,
		Boost:    c.APM.BoostConfiguration,
		FastLoad: c.APM.FastLoadConfiguration,
	}
}

// Validate rejects values the host cannot run with.
func (c Config) Validate() error {
	if c.FirmwareRevision == 0 {
		return errors.InvalidInput(errors.PhaseConfig, KeyFirmwareRevision+" must be set")
	}
	if !c.FirmwareRevision.Valid() {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Op(KeyFirmwareRevision).
			Value(uint32(c.FirmwareRevision)).
			Detail("0x%x is not a packed revision", uint32(c.FirmwareRevision)).
			Build()
	}
	if c.HandleTableSize <= 0 || c.HandleTableSize > 1<<16 {
		return errors.OutOfRange(errors.PhaseConfig, KeyHandleTableSize, int64(c.HandleTableSize), 1, 1<<16)
	}
	if c.MaxSessions <= 0 {
		return errors.OutOfRange(errors.PhaseConfig, KeyMaxSessions, int64(c.MaxSessions), 1, 1<<16)
	}
	return nil
}

func defaults() map[string]any {
	cfg := apm.DefaultConfigurations()
	return map[string]any{
		KeyFirmwareRevision: DefaultFirmware,
		KeyDocked:           false,
		KeyVRMode:           false,
		KeyHandleTableSize:  handle.DefaultCapacity,
		KeyMaxSessions:      session.DefaultMaxSessions,
		KeyAPMDefault:       uint32(cfg.Normal),
		KeyAPMBoost:         uint32(cfg.Boost),
		KeyAPMFastLoad:      uint32(cfg.FastLoad),
		KeyLogLevel:         DefaultLogLevel,
		KeyTracePath:        "",
	}
}

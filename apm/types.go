// Package apm is the performance management sub-service shared by all sessions.
//
// The Manager derives the performance mode from the docked state, stores the CPU
// boost mode requested by applets and maps both to a performance configuration
// (CPU/GPU/EMC clock set). Every state transition happens under one mutex.
package apm

import "fmt"

// PerformanceMode is the clock profile family selected by the docked state.
type PerformanceMode int32

const (
	PerformanceModeInvalid PerformanceMode = -1
	PerformanceModeNormal  PerformanceMode = 0 // handheld
	PerformanceModeBoost   PerformanceMode = 1 // docked
)

func (m PerformanceMode) String() string {
	switch m {
	case PerformanceModeNormal:
		return "normal"
	case PerformanceModeBoost:
		return "boost"
	default:
		return "invalid"
	}
}

// CpuBoostMode is requested by applets to raise CPU clocks temporarily.
type CpuBoostMode uint32

const (
	CpuBoostDisabled    CpuBoostMode = 0
	CpuBoostFastLoad    CpuBoostMode = 1
	CpuBoostPowerSaving CpuBoostMode = 2
)

func (m CpuBoostMode) String() string {
	switch m {
	case CpuBoostDisabled:
		return "disabled"
	case CpuBoostFastLoad:
		return "fast-load"
	case CpuBoostPowerSaving:
		return "power-saving"
	default:
		return fmt.Sprintf("cpu-boost(%d)", uint32(m))
	}
}

// PerformanceConfiguration identifies a CPU/GPU/EMC clock set.
type PerformanceConfiguration uint32

const (
	PerformanceConfiguration1  PerformanceConfiguration = 0x00010000 // CPU 1020MHz, GPU 384MHz
	PerformanceConfiguration2  PerformanceConfiguration = 0x00010001 // CPU 1020MHz, GPU 768MHz
	PerformanceConfiguration3  PerformanceConfiguration = 0x00010002 // CPU 1224MHz, GPU 691MHz
	PerformanceConfiguration4  PerformanceConfiguration = 0x00020000 // CPU 1020MHz, GPU 230MHz
	PerformanceConfiguration5  PerformanceConfiguration = 0x00020001 // CPU 1020MHz, GPU 307MHz
	PerformanceConfiguration6  PerformanceConfiguration = 0x00020002 // CPU 1224MHz, GPU 230MHz
	PerformanceConfiguration7  PerformanceConfiguration = 0x00020003 // CPU 1020MHz, GPU 307MHz
	PerformanceConfiguration8  PerformanceConfiguration = 0x00020004 // CPU 1020MHz, GPU 384MHz
	PerformanceConfiguration9  PerformanceConfiguration = 0x00020005 // CPU 1020MHz, GPU 307MHz, EMC 1331MHz
	PerformanceConfiguration10 PerformanceConfiguration = 0x00020006 // CPU 1020MHz, GPU 384MHz, EMC 1331MHz
	PerformanceConfiguration11 PerformanceConfiguration = 0x92220007 // CPU 1020MHz, GPU 460MHz
	PerformanceConfiguration12 PerformanceConfiguration = 0x92220008 // CPU 1020MHz, GPU 460MHz, EMC 1331MHz
	PerformanceConfiguration13 PerformanceConfiguration = 0x92220009 // CPU 1785MHz, GPU 76MHz
	PerformanceConfiguration14 PerformanceConfiguration = 0x9222000A // CPU 1785MHz, GPU 76MHz, EMC 1331MHz
	PerformanceConfiguration15 PerformanceConfiguration = 0x9222000B // CPU 1020MHz, GPU 76MHz
	PerformanceConfiguration16 PerformanceConfiguration = 0x9222000C // CPU 1020MHz, GPU 76MHz, EMC 1331MHz
)

func (c PerformanceConfiguration) String() string {
	return fmt.Sprintf("0x%08x", uint32(c))
}

// DockedSource reports whether the console sits in its dock.
type DockedSource interface {
	Docked() bool
}

package budget

import (
	"math"
	"time"
)

const (
	// ChannelCountMax is the maximum number of channels supported (5.1 surround).
	ChannelCountMax = 6

	// VoiceChannelCountMax is the maximum number of channels per voice.
	VoiceChannelCountMax = ChannelCountMax

	// MixBufferCountMax is the maximum number of mix buffers per operation.
	MixBufferCountMax = 24

	// VoiceWaveBufferCount is the number of wave buffers per voice.
	VoiceWaveBufferCount = 4

	// VoiceBiquadFilterCount is the number of biquad filters per voice.
	VoiceBiquadFilterCount = 2

	// VoiceHighestPriority is never dropped when a voice drop occurs.
	VoiceHighestPriority = 0

	// VoiceLowestPriority is dropped first.
	VoiceLowestPriority = 0xFF

	// MaxErrorInfos bounds the error infos returned with the behaviour status.
	MaxErrorInfos = 10
)

// Alignments, all powers of two.
const (
	BufferAlignment                          = 0x40
	WorkBufferAlignment                      = 0x1000
	PerformanceMetricsPerFramesSizeAlignment = 0x100
)

// Reserved identifiers.
const (
	FinalMixId             = 0
	UnusedMixId            = math.MaxInt32
	UnusedSplitterIdInt    = -1
	UnusedSplitterId       = math.MaxUint32
	InvalidNodeId          = -268435456
	InvalidProcessingOrder = -1
)

const (
	// SessionCountMax is the number of renderer sessions allowed system wide.
	SessionCountMax = 2

	// TargetSampleRate is the renderer output rate in Hz.
	TargetSampleRate = 48000

	// TargetSampleSize is the output sample size in bytes (PCM16).
	TargetSampleSize = 2

	// TargetSampleCount is the number of samples produced per update.
	TargetSampleCount = 240

	// UpSampleEntrySize is the size of one upsampler entry.
	UpSampleEntrySize = TargetSampleCount * VoiceChannelCountMax

	// MaxUpdateTimeTarget is the update period in nanoseconds (5ms).
	MaxUpdateTimeTarget = 1000000000 / (TargetSampleRate / TargetSampleCount)

	// MaxUpdateTime is the DSP update time on hardware in nanoseconds (5.76ms).
	MaxUpdateTime = 5760000

	// MaxUpdateTimePerSession is the share of MaxUpdateTime of one session.
	MaxUpdateTimePerSession = MaxUpdateTime / SessionCountMax

	// TargetTimerFrequency is the guest system tick frequency in Hz.
	TargetTimerFrequency = 19200000
)

// Downmix is a 5.1 to stereo coefficient set: front, center, LFE, back.
type Downmix [4]float32

// defaultSurroundToStereo is returned by value so callers cannot mutate it.
var defaultSurroundToStereo = Downmix{1.0, 0.707, 0.251, 0.707}

// DefaultSurroundToStereo returns the coefficients used when no mix matrix is supplied.
func DefaultSurroundToStereo() Downmix {
	return defaultSurroundToStereo
}

// FramePeriod is the scheduling tick of the mixer.
func FramePeriod() time.Duration {
	return time.Duration(MaxUpdateTimeTarget)
}

// PerSessionUpdateBudget is the DSP time one session may use per update.
func PerSessionUpdateBudget() time.Duration {
	return time.Duration(MaxUpdateTimePerSession)
}

// GlobalUpdateBudget is the DSP time available per update across all sessions.
func GlobalUpdateBudget() time.Duration {
	return time.Duration(MaxUpdateTime)
}

// IsPowerOfTwo reports whether v is a positive power of two.
func IsPowerOfTwo(v uint64) bool {
	return v != 0 && v&(v-1) == 0
}

// Align rounds v up to a multiple of align, which must be a power of two.
// Values above the largest aligned uint64 saturate to it.
func Align(v, align uint64) uint64 {
	if !IsPowerOfTwo(align) {
		panic("budget: alignment is not a power of two")
	}
	if v > math.MaxUint64-(align-1) {
		return math.MaxUint64 &^ (align - 1)
	}
	return (v + align - 1) &^ (align - 1)
}

// DurationToTicks converts d to guest system ticks.
func DurationToTicks(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	sec := uint64(d / time.Second)
	rem := uint64(d % time.Second)
	return sec*TargetTimerFrequency + rem*TargetTimerFrequency/uint64(time.Second)
}

// TicksToDuration converts guest system ticks to a duration. Tick counts past
// the longest time.Duration saturate to math.MaxInt64.
func TicksToDuration(ticks uint64) time.Duration {
	sec := ticks / TargetTimerFrequency
	rem := ticks % TargetTimerFrequency
	if sec > math.MaxInt64/uint64(time.Second) {
		return math.MaxInt64
	}
	total := sec*uint64(time.Second) + rem*uint64(time.Second)/TargetTimerFrequency
	if total > math.MaxInt64 {
		return math.MaxInt64
	}
	return time.Duration(total)
}

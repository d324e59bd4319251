package budget

import (
	"github.com/wippyai/hle/errors"
)

// Parameter is the mixer configuration requested by a renderer session.
type Parameter struct {
	SampleRate     uint32
	SampleCount    uint32
	ChannelCount   uint32
	MixBufferCount uint32
	VoiceCount     uint32
	WorkBuffer     uint64 // guest address of the work buffer
}

// Voice is the per-voice configuration checked when a voice is updated.
type Voice struct {
	ChannelCount    uint32
	WaveBufferCount uint32
	Priority        int32
}

// Validate checks p against the declared ceilings.
func Validate(p Parameter) error {
	switch {
	case p.SampleRate == TargetSampleRate && p.SampleCount == TargetSampleCount:
	case p.SampleRate == 32000 && p.SampleCount == 160:
	default:
		return errors.New(errors.PhaseValidate, errors.KindUnsupported).
			Op("sample_rate").
			Detail("%d Hz with %d samples per update", p.SampleRate, p.SampleCount).
			Build()
	}

	if err := inRange("channel_count", int64(p.ChannelCount), 1, ChannelCountMax); err != nil {
		return err
	}
	if err := inRange("mix_buffer_count", int64(p.MixBufferCount), 1, MixBufferCountMax); err != nil {
		return err
	}
	if p.WorkBuffer%WorkBufferAlignment != 0 {
		return errors.New(errors.PhaseValidate, errors.KindInvalidInput).
			Op("work_buffer").
			Value(p.WorkBuffer).
			Detail("0x%x is not aligned to 0x%x", p.WorkBuffer, WorkBufferAlignment).
			Build()
	}
	return nil
}

// ValidateVoice checks v against the per-voice ceilings.
func ValidateVoice(v Voice) error {
	if err := inRange("voice_channel_count", int64(v.ChannelCount), 1, VoiceChannelCountMax); err != nil {
		return err
	}
	if err := inRange("wave_buffer_count", int64(v.WaveBufferCount), 0, VoiceWaveBufferCount); err != nil {
		return err
	}
	return inRange("priority", int64(v.Priority), VoiceHighestPriority, VoiceLowestPriority)
}

func inRange(field string, v, lo, hi int64) error {
	if v < lo || v > hi {
		return errors.OutOfRange(errors.PhaseValidate, field, v, lo, hi)
	}
	return nil
}

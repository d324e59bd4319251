// Package budget holds the fixed resource budget of the audio mixing pipeline.
//
// The values are build-time configuration consumed by the mixing scheduler: channel
// and buffer ceilings, alignments, voice priority range, and the timing targets used
// to size the periodic update tick. Nothing here changes at runtime.
//
// # Timing
//
// The renderer produces TargetSampleCount samples per update at TargetSampleRate:
//
//	FramePeriod = 1e9 / (48000 / 240) ns = 5ms
//
// The DSP has MaxUpdateTime per update on hardware, split evenly between the
// SessionCountMax renderer sessions (PerSessionUpdateTime).
//
// # Validation
//
// Validate checks a Parameter against the ceilings before a mixer is configured:
//
//	if err := budget.Validate(p); err != nil {
//	    return err
//	}
package budget

// Package stt defines the Provider interface for speech-to-text backends.
//
// An STT provider wraps a batch transcription service (a whisper.cpp server,
// the whisper.cpp CGO bindings, Deepgram's pre-recorded API, or the OpenAI
// transcription API). The input is always a canonical waveform — 16 kHz mono
// 16-bit PCM produced by the transcoding stage — so providers never branch on
// audio format.
//
// Transcription outcomes are a tagged [Result] rather than a bare string:
// a service that answers "I heard nothing usable" is a normal outcome
// (StatusUnintelligible), and a network fault is reported as
// StatusServiceFailure so the orchestrator can surface it without treating it
// as a programming error. The error return is reserved for invalid input and
// cancelled contexts.
//
// Implementations must be safe for concurrent use.
package stt

import (
	"context"

	"github.com/voxkit/voicepad/pkg/audio"
)

// Status tags a transcription outcome.
type Status int

const (
	// StatusSuccess means the service produced a usable transcript.
	StatusSuccess Status = iota

	// StatusUnintelligible means the service processed the audio but could
	// not extract any text (silence, noise, unknown language).
	StatusUnintelligible

	// StatusServiceFailure means the service could not be reached or answered
	// with an error. Detail carries a human-readable description.
	StatusServiceFailure
)

// String returns the human-readable name of the status.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusUnintelligible:
		return "unintelligible"
	case StatusServiceFailure:
		return "service-failure"
	default:
		return "unknown"
	}
}

// Result is the tagged outcome of one transcription round trip.
type Result struct {
	// Status tags the outcome; Text and Confidence are meaningful only for
	// StatusSuccess, Detail only for StatusServiceFailure.
	Status Status

	// Text is the transcript.
	Text string

	// Confidence is the service-reported confidence (0.0–1.0), or zero when
	// the backend does not report one.
	Confidence float64

	// Detail describes a service failure in terms suitable for display.
	Detail string
}

// Success constructs a successful Result.
func Success(text string, confidence float64) Result {
	return Result{Status: StatusSuccess, Text: text, Confidence: confidence}
}

// Unintelligible constructs a no-usable-text Result.
func Unintelligible() Result {
	return Result{Status: StatusUnintelligible}
}

// ServiceFailure constructs a failed Result with the given detail.
func ServiceFailure(detail string) Result {
	return Result{Status: StatusServiceFailure, Detail: detail}
}

// Provider is the abstraction over any STT backend.
type Provider interface {
	// Transcribe submits the canonical waveform for recognition and returns a
	// tagged Result. Exactly one network round trip is performed per call;
	// recognition is a pure read of the waveform, so callers may safely wrap
	// Transcribe in a bounded retry.
	//
	// The error return is reserved for cancelled contexts and invalid input
	// (e.g. a waveform at the wrong sample rate); network and service faults
	// are reported in-band as StatusServiceFailure.
	Transcribe(ctx context.Context, w audio.Waveform) (Result, error)
}

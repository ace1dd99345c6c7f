package resilience

import (
	"context"
	"errors"
	"fmt"

	"github.com/voxkit/voicepad/pkg/audio"
	"github.com/voxkit/voicepad/pkg/provider/stt"
)

// STTFallback implements [stt.Provider] with automatic failover across multiple
// STT backends. Each backend has its own circuit breaker.
//
// Failover keys off the tagged result: a backend answering
// [stt.StatusServiceFailure] counts as a failure and the next backend is
// tried, while [stt.StatusUnintelligible] is a final verdict about the audio
// and is returned as-is. When every backend fails, the combined detail is
// reported in-band as a service failure, matching the provider contract.
type STTFallback struct {
	group *FallbackGroup[stt.Provider]
}

// Compile-time interface assertion.
var _ stt.Provider = (*STTFallback)(nil)

// NewSTTFallback creates an [STTFallback] with primary as the preferred backend.
func NewSTTFallback(primary stt.Provider, primaryName string, cfg FallbackConfig) *STTFallback {
	return &STTFallback{
		group: NewFallbackGroup("stt", primary, primaryName, cfg),
	}
}

// AddFallback registers an additional STT provider as a fallback.
func (f *STTFallback) AddFallback(name string, provider stt.Provider) {
	f.group.AddFallback(name, provider)
}

// errServiceFailure carries a backend's in-band failure through the fallback
// group so the circuit breaker sees it as an error.
type errServiceFailure struct{ detail string }

func (e errServiceFailure) Error() string { return e.detail }

// Transcribe recognises w with the first healthy provider.
func (f *STTFallback) Transcribe(ctx context.Context, w audio.Waveform) (stt.Result, error) {
	res, err := ExecuteWithResult(f.group, func(p stt.Provider) (stt.Result, error) {
		r, err := p.Transcribe(ctx, w)
		if err != nil {
			return stt.Result{}, err
		}
		if r.Status == stt.StatusServiceFailure {
			return stt.Result{}, errServiceFailure{detail: r.Detail}
		}
		return r, nil
	})
	if err == nil {
		return res, nil
	}
	// Cancellation is a caller problem, not a backend one.
	if ctx.Err() != nil {
		return stt.Result{}, fmt.Errorf("stt fallback: %w", ctx.Err())
	}
	if errors.Is(err, ErrAllFailed) {
		return stt.ServiceFailure(err.Error()), nil
	}
	return stt.Result{}, err
}

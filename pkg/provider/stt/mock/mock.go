// Package mock provides a scriptable in-memory stt.Provider for tests.
package mock

import (
	"context"
	"sync"

	"github.com/voxkit/voicepad/pkg/audio"
	"github.com/voxkit/voicepad/pkg/provider/stt"
)

// Ensure Provider implements the stt.Provider interface.
var _ stt.Provider = (*Provider)(nil)

// Provider is a scriptable STT double. Set TranscribeFunc to control the
// outcome; the zero value answers every request with a fixed transcript.
type Provider struct {
	// TranscribeFunc, when non-nil, handles Transcribe calls.
	TranscribeFunc func(ctx context.Context, w audio.Waveform) (stt.Result, error)

	mu    sync.Mutex
	calls []audio.Waveform
}

// Transcribe records the waveform and delegates to TranscribeFunc, or returns
// a fixed success result when no function is scripted.
func (p *Provider) Transcribe(ctx context.Context, w audio.Waveform) (stt.Result, error) {
	p.mu.Lock()
	p.calls = append(p.calls, w)
	p.mu.Unlock()

	if p.TranscribeFunc != nil {
		return p.TranscribeFunc(ctx, w)
	}
	return stt.Success("mock transcript", 1), nil
}

// Calls returns the waveforms passed to Transcribe, in order.
func (p *Provider) Calls() []audio.Waveform {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]audio.Waveform, len(p.calls))
	copy(out, p.calls)
	return out
}

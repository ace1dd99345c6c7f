// Package mock provides a scriptable in-memory tts.Provider for tests.
package mock

import (
	"context"
	"sync"

	"github.com/voxkit/voicepad/pkg/audio"
	"github.com/voxkit/voicepad/pkg/provider/tts"
)

// Ensure Provider implements the tts.Provider interface.
var _ tts.Provider = (*Provider)(nil)

// Provider is a scriptable TTS double. Set SynthesizeFunc to control the
// outcome; the zero value answers every request with a tiny fake MP3.
type Provider struct {
	// SynthesizeFunc, when non-nil, handles Synthesize calls.
	SynthesizeFunc func(ctx context.Context, text string, voice tts.Voice) (audio.Artifact, error)

	// Voices is returned by ListVoices. Defaults to a single "mock" voice.
	Voices []tts.Voice

	mu    sync.Mutex
	calls []string
}

// Synthesize records the text and delegates to SynthesizeFunc, or returns a
// small fixed artifact when no function is scripted.
func (p *Provider) Synthesize(ctx context.Context, text string, voice tts.Voice) (audio.Artifact, error) {
	p.mu.Lock()
	p.calls = append(p.calls, text)
	p.mu.Unlock()

	if p.SynthesizeFunc != nil {
		return p.SynthesizeFunc(ctx, text, voice)
	}
	return audio.Artifact{Data: []byte{0xFF, 0xFB, 0x90, 0x00}, MIME: "audio/mpeg"}, nil
}

// ListVoices returns the scripted voice list.
func (p *Provider) ListVoices(_ context.Context) ([]tts.Voice, error) {
	if len(p.Voices) == 0 {
		return []tts.Voice{{ID: "mock", Name: "Mock Voice", Provider: "mock"}}, nil
	}
	return p.Voices, nil
}

// Calls returns the texts passed to Synthesize, in order.
func (p *Provider) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.calls))
	copy(out, p.calls)
	return out
}

// Package tts defines the Provider interface for text-to-speech backends.
//
// A TTS provider wraps a speech synthesis service (the free Google Translate
// endpoint, ElevenLabs, or the OpenAI speech API) and presents a uniform batch
// interface: one utterance in, one encoded audio artifact out. voicepad's
// interaction model is one synthesis per user click, so no streaming surface
// is needed — the synthesis bridge materialises the whole artifact before the
// click handler returns.
//
// Implementations must be safe for concurrent use.
package tts

import (
	"context"
	"errors"

	"github.com/voxkit/voicepad/pkg/audio"
)

// ErrNoAudioProduced is returned when the synthesis service answered
// successfully but the resulting artifact holds zero audio bytes. It is
// deliberately distinct from a network-level failure: the caller may want to
// rephrase the text rather than retry the request.
var ErrNoAudioProduced = errors.New("tts: service produced no audio")

// Voice identifies a synthesis voice or language variant offered by a provider.
type Voice struct {
	// ID is the provider-specific selector (a voice UUID for ElevenLabs, a
	// BCP-47-ish language tag for the Google Translate endpoint).
	ID string

	// Name is the human-readable label shown in the UI selector.
	Name string

	// Provider names the backend this voice belongs to.
	Provider string

	// Language is the BCP-47 language tag the voice speaks, when known.
	Language string
}

// Provider is the abstraction over any TTS backend.
type Provider interface {
	// Synthesize converts text into an encoded audio artifact using the given
	// voice. The artifact's MIME field declares the encoding the service
	// returned (typically "audio/mpeg").
	//
	// A non-nil error is returned for network and service failures, for
	// cancelled contexts, and — as [ErrNoAudioProduced] — when the service
	// answered with an empty body. Implementations never return a nil error
	// together with an empty artifact.
	Synthesize(ctx context.Context, text string, voice Voice) (audio.Artifact, error)

	// ListVoices returns the voices this provider can synthesize with. The
	// list may change between calls for providers with server-side catalogues.
	ListVoices(ctx context.Context) ([]Voice, error)
}

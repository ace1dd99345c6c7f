// Package orchestrator wires the text slot, the synthesis bridge, and the
// recognition pipeline into the two operations the web surface exposes:
// speak the current text, and turn captured audio back into text.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/voxkit/voicepad/internal/bridge"
	"github.com/voxkit/voicepad/internal/observe"
	"github.com/voxkit/voicepad/internal/session"
	"github.com/voxkit/voicepad/internal/transcript"
	"github.com/voxkit/voicepad/pkg/audio"
	"github.com/voxkit/voicepad/pkg/provider/stt"
	"github.com/voxkit/voicepad/pkg/provider/tts"
)

// ErrBlankText is returned by Speak when the text slot is empty after
// trimming. Nothing is synthesized and the session is left unchanged.
var ErrBlankText = errors.New("orchestrator: text is blank")

// ErrSynthesisInFlight is returned by Speak when the session already has a
// synthesis job running. The caller should tell the user to wait.
var ErrSynthesisInFlight = errors.New("orchestrator: synthesis already in flight")

// ErrNoRecognizer is returned by Transcribe when no STT provider is
// configured.
var ErrNoRecognizer = errors.New("orchestrator: no speech recognizer configured")

// silenceRMS is the RMS level (in int16 sample units) below which a waveform
// is treated as silence and never sent to a recognizer.
const silenceRMS = 80.0

// defaultSynthesisTimeout bounds a synthesis job when no timeout is configured.
const defaultSynthesisTimeout = 60 * time.Second

// Orchestrator coordinates synthesis and recognition for all sessions.
// All synthesis runs through a single [bridge.Worker] so backends that
// tolerate only one in-flight request are never called concurrently.
type Orchestrator struct {
	tts     tts.Provider
	ttsName string
	stt     stt.Provider // nil when recognition is disabled
	sttName string
	worker  *bridge.Worker
	metrics *observe.Metrics

	synthesisTimeout time.Duration
	defaultVoice     string
	defaultLanguage  string
}

// Config assembles an [Orchestrator].
type Config struct {
	// TTS is the synthesis provider (possibly a fallback chain). Required.
	// TTSName labels it in metrics.
	TTS     tts.Provider
	TTSName string

	// STT is the recognition provider. May be nil; Transcribe then returns
	// [ErrNoRecognizer]. STTName labels it in metrics.
	STT     stt.Provider
	STTName string

	// Metrics receives stage durations and counters. When nil, the
	// package-level default instruments are used.
	Metrics *observe.Metrics

	// SynthesisTimeout bounds a single synthesis job. Defaults to 60s.
	SynthesisTimeout time.Duration

	// DefaultVoice and DefaultLanguage are used when the session has no
	// selection of its own.
	DefaultVoice    string
	DefaultLanguage string
}

// New creates an [Orchestrator]. The synthesis worker goroutine starts lazily
// on the first Speak call.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.TTS == nil {
		return nil, errors.New("orchestrator: a TTS provider is required")
	}
	m := cfg.Metrics
	if m == nil {
		m = observe.DefaultMetrics()
	}
	timeout := cfg.SynthesisTimeout
	if timeout <= 0 {
		timeout = defaultSynthesisTimeout
	}
	return &Orchestrator{
		tts:              cfg.TTS,
		ttsName:          cfg.TTSName,
		stt:              cfg.STT,
		sttName:          cfg.STTName,
		worker:           &bridge.Worker{},
		metrics:          m,
		synthesisTimeout: timeout,
		defaultVoice:     cfg.DefaultVoice,
		defaultLanguage:  cfg.DefaultLanguage,
	}, nil
}

// Close stops the synthesis worker.
func (o *Orchestrator) Close() {
	o.worker.Close()
}

// CanTranscribe reports whether a recognizer is configured.
func (o *Orchestrator) CanTranscribe() bool {
	return o.stt != nil
}

// Voices lists the voices of the synthesis provider.
func (o *Orchestrator) Voices(ctx context.Context) ([]tts.Voice, error) {
	return o.tts.ListVoices(ctx)
}

// Speak stores text as the session's current text and synthesizes it with the
// session's selected voice. Blank text (after trimming) is rejected with
// [ErrBlankText] before anything is written. A second Speak on the same
// session while one is running is rejected with [ErrSynthesisInFlight].
func (o *Orchestrator) Speak(ctx context.Context, sess *session.Session, text string) (audio.Artifact, error) {
	if strings.TrimSpace(text) == "" {
		return audio.Artifact{}, ErrBlankText
	}
	if !sess.BeginSynthesis() {
		return audio.Artifact{}, ErrSynthesisInFlight
	}
	defer sess.EndSynthesis()

	sess.SetText(text)

	voiceID, language := sess.Voice()
	if voiceID == "" {
		voiceID = o.defaultVoice
	}
	if language == "" {
		language = o.defaultLanguage
	}
	voice := tts.Voice{ID: voiceID, Language: language}

	var art audio.Artifact
	start := time.Now()
	err := o.worker.Submit(ctx, func(jobCtx context.Context) error {
		var jobErr error
		art, jobErr = o.tts.Synthesize(jobCtx, text, voice)
		return jobErr
	}, o.synthesisTimeout)
	o.metrics.SynthesisDuration.Record(ctx, time.Since(start).Seconds())

	switch {
	case err == nil:
		o.metrics.RecordProviderRequest(ctx, o.ttsName, "tts", "ok")
		return art, nil
	case errors.Is(err, bridge.ErrTimeout):
		o.metrics.RecordProviderError(ctx, o.ttsName, "tts")
		return audio.Artifact{}, fmt.Errorf("orchestrator: synthesis timed out after %s: %w", o.synthesisTimeout, err)
	default:
		o.metrics.RecordProviderError(ctx, o.ttsName, "tts")
		return audio.Artifact{}, fmt.Errorf("orchestrator: synthesis: %w", err)
	}
}

// Transcribe transcodes the submitted audio to the canonical waveform and
// runs recognition on it. On success the transcript is stored on the session
// and applied to the text slot, so the next Speak reads it back.
//
// Transcoding failures surface as typed errors ([audio.ErrEmptyInput],
// [audio.ErrUnsupportedFormat]); recognizer faults come back in-band in the
// tagged result, never as an error.
func (o *Orchestrator) Transcribe(ctx context.Context, sess *session.Session, data []byte, hint audio.Container) (stt.Result, error) {
	if o.stt == nil {
		return stt.Result{}, ErrNoRecognizer
	}

	start := time.Now()
	w, err := audio.Transcode(data, hint)
	o.metrics.TranscodeDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		return stt.Result{}, fmt.Errorf("orchestrator: transcode: %w", err)
	}

	// Near-silent clips never reach a backend; they cannot transcribe to
	// anything and some APIs bill per second of audio.
	if w.RMS() < silenceRMS {
		o.metrics.Unintelligible.Add(ctx, 1)
		return stt.Unintelligible(), nil
	}

	start = time.Now()
	res, err := o.stt.Transcribe(ctx, w)
	o.metrics.RecognitionDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		return stt.Result{}, fmt.Errorf("orchestrator: recognition: %w", err)
	}

	switch res.Status {
	case stt.StatusSuccess:
		o.metrics.RecordProviderRequest(ctx, o.sttName, "stt", "ok")
		// Score the round trip against whatever was in the slot before
		// the transcript replaces it.
		sim := transcript.Similarity(sess.Text(), res.Text)
		sess.SetTranscript(res.Text, sim, true)
	case stt.StatusUnintelligible:
		o.metrics.Unintelligible.Add(ctx, 1)
	case stt.StatusServiceFailure:
		o.metrics.RecordProviderError(ctx, o.sttName, "stt")
	}
	return res, nil
}

// Package audio implements the transcoding stage of the voicepad pipeline.
//
// Incoming audio arrives as an [Artifact]: an encoded byte sequence in one of
// the supported containers (WAV, MP3, Ogg/Opus) or as raw 16-bit PCM. The
// package decodes it into a [Waveform] and normalises the result to the
// canonical recognition format — 16 kHz mono 16-bit signed little-endian PCM —
// so that the recognition stage never has to branch on input format.
//
// Decoding is pure: no temporary files are created and the input slice is
// never mutated.
package audio

import (
	"encoding/binary"
	"errors"
	"math"
	"time"
)

const (
	// CanonicalSampleRate is the sample rate of canonical waveforms in Hz.
	// 16 kHz is the native rate of every supported recognition backend.
	CanonicalSampleRate = 16000

	// CanonicalChannels is the channel count of canonical waveforms.
	CanonicalChannels = 1

	// bytesPerSample is fixed at 2 for 16-bit signed little-endian PCM.
	bytesPerSample = 2
)

// ErrEmptyInput is returned when the artifact to decode has zero length.
var ErrEmptyInput = errors.New("audio: empty input")

// ErrUnsupportedFormat is returned when no available decoder accepts the
// artifact's byte content.
var ErrUnsupportedFormat = errors.New("audio: unsupported format")

// Artifact is an immutable encoded audio clip together with its media type.
// It is produced by the input stage (recording/upload) or by a synthesis
// backend, and consumed exactly once — by the transcoding stage or by the
// playback sink respectively.
type Artifact struct {
	// Data is the encoded audio bytes. Never mutated by this package.
	Data []byte

	// MIME is the declared media type (e.g. "audio/mpeg", "audio/wav").
	// The playback sink uses it to select the browser's decoder.
	MIME string
}

// Empty reports whether the artifact carries no audio bytes.
func (a Artifact) Empty() bool { return len(a.Data) == 0 }

// Waveform is decoded 16-bit signed little-endian PCM audio. It exists only
// transiently between the transcoding and recognition stages and is owned by
// the pipeline invocation that created it.
type Waveform struct {
	Data       []byte
	SampleRate int
	Channels   int
}

// Duration returns the playback length of the waveform.
func (w Waveform) Duration() time.Duration {
	if w.SampleRate <= 0 || w.Channels <= 0 {
		return 0
	}
	frames := len(w.Data) / (bytesPerSample * w.Channels)
	return time.Duration(frames) * time.Second / time.Duration(w.SampleRate)
}

// RMS returns the root-mean-square energy of the waveform in PCM sample units
// (0–32767). Returns 0 for waveforms shorter than one sample. Recognition
// callers use this to short-circuit silent clips to an unintelligible result
// without a network round trip.
func (w Waveform) RMS() float64 {
	n := len(w.Data) / bytesPerSample
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		sample := int16(binary.LittleEndian.Uint16(w.Data[i*2 : i*2+2]))
		v := float64(sample)
		sum += v * v
	}
	return math.Sqrt(sum / float64(n))
}

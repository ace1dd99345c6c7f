package audio

import "bytes"

// Container identifies a recognised audio container/codec.
type Container string

const (
	ContainerWAV     Container = "wav"
	ContainerMP3     Container = "mp3"
	ContainerOggOpus Container = "ogg"
	ContainerPCM     Container = "pcm"
	ContainerUnknown Container = ""
)

// MIME returns the media type string for the container, suitable for the
// playback sink's source declaration.
func (c Container) MIME() string {
	switch c {
	case ContainerWAV:
		return "audio/wav"
	case ContainerMP3:
		return "audio/mpeg"
	case ContainerOggOpus:
		return "audio/ogg"
	case ContainerPCM:
		return "audio/L16"
	default:
		return "application/octet-stream"
	}
}

// Sniff inspects the leading bytes of data and reports the container it
// appears to be. Raw PCM has no magic number and is never sniffed; callers
// that accept raw PCM must pass an explicit hint to [Transcode].
func Sniff(data []byte) Container {
	switch {
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return ContainerWAV
	case len(data) >= 4 && string(data[0:4]) == "OggS":
		return ContainerOggOpus
	case len(data) >= 3 && string(data[0:3]) == "ID3":
		return ContainerMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		// MPEG audio frame sync without an ID3 prefix.
		return ContainerMP3
	default:
		return ContainerUnknown
	}
}

// Transcode decodes an artifact of unspecified container into the canonical
// recognition waveform (16 kHz mono 16-bit PCM).
//
// hint names the container the caller believes the bytes to be in (usually
// derived from a file extension, or [ContainerPCM] for capture frames). The
// hint wins over content sniffing: raw PCM has no magic bytes and its first
// sample can collide with an MPEG frame sync, so a caller that knows the
// layout must not be second-guessed. Sniffing is used only when the hint is
// [ContainerUnknown].
//
// Returns [ErrEmptyInput] for a zero-length artifact and
// [ErrUnsupportedFormat] when no decoder accepts the bytes.
func Transcode(data []byte, hint Container) (Waveform, error) {
	if len(data) == 0 {
		return Waveform{}, ErrEmptyInput
	}

	container := hint
	if container == ContainerUnknown {
		container = Sniff(data)
	}

	var (
		w   Waveform
		err error
	)
	switch container {
	case ContainerWAV:
		w, err = DecodeWAV(data)
	case ContainerMP3:
		w, err = DecodeMP3(data)
	case ContainerOggOpus:
		w, err = DecodeOggOpus(data)
	case ContainerPCM:
		// Raw PCM is assumed to already be in the canonical layout; an odd
		// trailing byte is dropped rather than rejected.
		w = Waveform{
			Data:       bytes.Clone(data[:len(data)&^1]),
			SampleRate: CanonicalSampleRate,
			Channels:   CanonicalChannels,
		}
	default:
		return Waveform{}, ErrUnsupportedFormat
	}
	if err != nil {
		return Waveform{}, err
	}

	return Canonicalize(w), nil
}

// ContainerForExtension maps an upload filename extension (without the dot,
// lower-case) to a container hint. Unknown extensions map to
// [ContainerUnknown].
func ContainerForExtension(ext string) Container {
	switch ext {
	case "wav", "wave":
		return ContainerWAV
	case "mp3":
		return ContainerMP3
	case "ogg", "oga", "opus":
		return ContainerOggOpus
	case "pcm", "raw":
		return ContainerPCM
	default:
		return ContainerUnknown
	}
}

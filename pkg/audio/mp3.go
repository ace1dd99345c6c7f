package audio

import (
	"bytes"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"
)

// DecodeMP3 decodes an MP3 stream into a waveform at the stream's native
// sample rate. The go-mp3 decoder always emits 16-bit stereo regardless of
// the source channel layout, so the returned waveform has Channels == 2.
func DecodeMP3(data []byte) (Waveform, error) {
	dec, err := gomp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return Waveform{}, fmt.Errorf("%w: mp3: %v", ErrUnsupportedFormat, err)
	}

	var pcm bytes.Buffer
	if _, err := io.Copy(&pcm, dec); err != nil {
		return Waveform{}, fmt.Errorf("%w: mp3 decode: %v", ErrUnsupportedFormat, err)
	}
	if pcm.Len() == 0 {
		return Waveform{}, fmt.Errorf("%w: mp3 stream held no frames", ErrUnsupportedFormat)
	}

	return Waveform{
		Data:       pcm.Bytes(),
		SampleRate: dec.SampleRate(),
		Channels:   2,
	}, nil
}

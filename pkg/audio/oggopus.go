package audio

import (
	"encoding/binary"
	"fmt"

	"layeh.com/gopus"
)

const (
	// opusSampleRate is the decode rate for Opus-in-Ogg streams. Opus always
	// reconstructs at 48 kHz regardless of the encoder's input rate.
	opusSampleRate = 48000

	// opusMaxFrameSize is the largest possible Opus frame: 120 ms at 48 kHz.
	opusMaxFrameSize = 5760
)

// DecodeOggOpus decodes an Ogg-encapsulated Opus stream — the container the
// browser MediaRecorder produces — into a waveform at 48 kHz. Only the first
// logical bitstream in the file is decoded.
func DecodeOggOpus(data []byte) (Waveform, error) {
	packets, channels, preSkip, err := demuxOggOpus(data)
	if err != nil {
		return Waveform{}, err
	}

	dec, err := gopus.NewDecoder(opusSampleRate, channels)
	if err != nil {
		return Waveform{}, fmt.Errorf("audio: create opus decoder: %w", err)
	}

	var out []byte
	for _, pkt := range packets {
		samples, err := dec.Decode(pkt, opusMaxFrameSize, false)
		if err != nil {
			// A corrupt packet mid-stream invalidates the whole clip; the
			// recognition stage must not see partially garbled audio.
			return Waveform{}, fmt.Errorf("%w: opus packet: %v", ErrUnsupportedFormat, err)
		}
		for _, s := range samples {
			out = append(out, byte(s), byte(s>>8))
		}
	}

	// Drop the encoder pre-skip priming samples from the head of the stream.
	skipBytes := preSkip * channels * 2
	if skipBytes > len(out) {
		skipBytes = len(out)
	}
	out = out[skipBytes:]

	if len(out) == 0 {
		return Waveform{}, fmt.Errorf("%w: ogg stream held no audio packets", ErrUnsupportedFormat)
	}

	return Waveform{Data: out, SampleRate: opusSampleRate, Channels: channels}, nil
}

// demuxOggOpus walks the Ogg pages of data, validates the OpusHead header
// packet, skips the OpusTags comment packet, and returns the raw Opus audio
// packets along with the channel count and pre-skip sample count.
func demuxOggOpus(data []byte) (packets [][]byte, channels, preSkip int, err error) {
	var (
		serial      uint32
		haveSerial  bool
		headerSeen  bool
		tagsSeen    bool
		carry       []byte // packet continued across a page boundary
	)

	pos := 0
	for pos+27 <= len(data) {
		if string(data[pos:pos+4]) != "OggS" {
			return nil, 0, 0, fmt.Errorf("%w: bad ogg capture pattern", ErrUnsupportedFormat)
		}
		if data[pos+4] != 0 {
			return nil, 0, 0, fmt.Errorf("%w: ogg version %d", ErrUnsupportedFormat, data[pos+4])
		}
		pageSerial := binary.LittleEndian.Uint32(data[pos+14 : pos+18])
		segCount := int(data[pos+26])
		tableStart := pos + 27
		if tableStart+segCount > len(data) {
			return nil, 0, 0, fmt.Errorf("%w: truncated ogg segment table", ErrUnsupportedFormat)
		}

		if !haveSerial {
			serial = pageSerial
			haveSerial = true
		}

		body := tableStart + segCount
		// Lacing: segments of 255 continue the current packet, a shorter
		// segment (including 0) terminates it.
		for seg := 0; seg < segCount; seg++ {
			segLen := int(data[tableStart+seg])
			if body+segLen > len(data) {
				return nil, 0, 0, fmt.Errorf("%w: truncated ogg page body", ErrUnsupportedFormat)
			}
			if pageSerial == serial {
				carry = append(carry, data[body:body+segLen]...)
				if segLen < 255 {
					pkt := carry
					carry = nil
					switch {
					case !headerSeen:
						channels, preSkip, err = parseOpusHead(pkt)
						if err != nil {
							return nil, 0, 0, err
						}
						headerSeen = true
					case !tagsSeen:
						// OpusTags carries vendor/comment metadata only.
						tagsSeen = true
					default:
						packets = append(packets, pkt)
					}
				}
			}
			body += segLen
		}
		pos = body
	}

	if !headerSeen {
		return nil, 0, 0, fmt.Errorf("%w: no OpusHead packet", ErrUnsupportedFormat)
	}
	return packets, channels, preSkip, nil
}

// parseOpusHead validates the OpusHead identification packet and extracts the
// channel count and pre-skip value.
func parseOpusHead(pkt []byte) (channels, preSkip int, err error) {
	if len(pkt) < 19 || string(pkt[0:8]) != "OpusHead" {
		return 0, 0, fmt.Errorf("%w: malformed OpusHead", ErrUnsupportedFormat)
	}
	channels = int(pkt[9])
	if channels < 1 || channels > 2 {
		return 0, 0, fmt.Errorf("%w: %d opus channels (want 1 or 2)", ErrUnsupportedFormat, channels)
	}
	preSkip = int(binary.LittleEndian.Uint16(pkt[10:12]))
	return channels, preSkip, nil
}

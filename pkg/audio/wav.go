package audio

import (
	"encoding/binary"
	"fmt"
)

// wavFormatPCM is the RIFF fmt-chunk audio format code for uncompressed PCM.
const wavFormatPCM = 1

// DecodeWAV parses a RIFF/WAVE container holding 16-bit PCM and returns its
// waveform at the container's native sample rate. Non-PCM encodings (IEEE
// float, A-law, compressed) and bit depths other than 16 are rejected with
// [ErrUnsupportedFormat].
func DecodeWAV(data []byte) (Waveform, error) {
	if len(data) < 44 {
		return Waveform{}, fmt.Errorf("%w: truncated WAV header", ErrUnsupportedFormat)
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return Waveform{}, fmt.Errorf("%w: missing RIFF/WAVE magic", ErrUnsupportedFormat)
	}

	var (
		sampleRate int
		channels   int
		bitDepth   int
		pcm        []byte
		haveFmt    bool
	)

	// Walk sub-chunks; order is not guaranteed and writers may insert
	// LIST/INFO chunks between fmt and data.
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if size < 0 || body+size > len(data) {
			// Tolerate a data chunk whose declared size overruns the file;
			// some streaming writers leave the size field at a placeholder.
			if id == "data" {
				size = len(data) - body
			} else {
				return Waveform{}, fmt.Errorf("%w: chunk %q overruns file", ErrUnsupportedFormat, id)
			}
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return Waveform{}, fmt.Errorf("%w: short fmt chunk", ErrUnsupportedFormat)
			}
			format := int(binary.LittleEndian.Uint16(data[body : body+2]))
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bitDepth = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			if format != wavFormatPCM {
				return Waveform{}, fmt.Errorf("%w: WAV format code %d (want PCM)", ErrUnsupportedFormat, format)
			}
			haveFmt = true
		case "data":
			pcm = data[body : body+size]
		}

		// Chunks are word-aligned; odd sizes carry a pad byte.
		pos = body + size
		if size%2 == 1 {
			pos++
		}
	}

	if !haveFmt || pcm == nil {
		return Waveform{}, fmt.Errorf("%w: missing fmt or data chunk", ErrUnsupportedFormat)
	}
	if bitDepth != 16 {
		return Waveform{}, fmt.Errorf("%w: %d-bit WAV (want 16)", ErrUnsupportedFormat, bitDepth)
	}
	if channels <= 0 || sampleRate <= 0 {
		return Waveform{}, fmt.Errorf("%w: invalid WAV fmt values", ErrUnsupportedFormat)
	}

	return Waveform{Data: pcm, SampleRate: sampleRate, Channels: channels}, nil
}

// EncodeWAV wraps raw 16-bit signed little-endian PCM data in a standard
// RIFF/WAV container. The returned byte slice is suitable for direct inclusion
// in a multipart form upload or a data URI.
func EncodeWAV(pcm []byte, sampleRate, channels int) []byte {
	const bps = 16
	byteRate := sampleRate * channels * bps / 8
	blockAlign := channels * bps / 8
	dataSize := len(pcm)

	buf := make([]byte, 44+dataSize)

	// RIFF chunk descriptor
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize)) // file size − 8
	copy(buf[8:12], "WAVE")

	// fmt sub-chunk
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)                 // sub-chunk size (PCM)
	binary.LittleEndian.PutUint16(buf[20:22], wavFormatPCM)       // audio format: PCM
	binary.LittleEndian.PutUint16(buf[22:24], uint16(channels))   // num channels
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate)) // sample rate
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))   // byte rate
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign)) // block align
	binary.LittleEndian.PutUint16(buf[34:36], bps)                // bits per sample

	// data sub-chunk
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	copy(buf[44:], pcm)

	return buf
}

// Package audio decodes encoded audio payloads into engine buffers.
package audio

import (
	"encoding/binary"
	"fmt"

	"github.com/vesta-engine/vesta/engine/resources"
)

// Format tags defined by the RIFF/WAVE standard.
const (
	wavFormatPCM        uint16 = 0x0001
	wavFormatIEEEFloat  uint16 = 0x0003
	wavFormatExtensible uint16 = 0xFFFE
)

var ErrNotWAV = fmt.Errorf("not a RIFF/WAVE stream")
var ErrNoFormatChunk = fmt.Errorf("wav stream carries no fmt chunk")
var ErrNoDataChunk = fmt.Errorf("wav stream carries no data chunk")

type wavFormat struct {
	format        uint16
	channels      uint16
	sampleRate    uint32
	blockAlign    uint16
	bitsPerSample uint16
}

/**
 * @brief Decodes a RIFF/WAVE payload into the given buffer.
 *
 * Integer PCM (8/16/24/32 bit) and IEEE float (32/64 bit) streams are
 * supported, including the extensible wrapper around either. Unknown chunks
 * are skipped. The samples are copied, the payload slice is not retained.
 * @param buffer A pointer to the buffer to fill.
 * @param data The raw bytes of a .wav file.
 * @returns nil on success, otherwise the decode error.
 */
func DecodeWAVInto(buffer *resources.AudioBuffer, data []byte) error {
	if buffer == nil {
		return fmt.Errorf("wav decode requires a target buffer")
	}
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return ErrNotWAV
	}

	var format *wavFormat
	var samples []byte
	haveData := false

	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		// Declared sizes are a full uint32 and can exceed int on 32 bit
		// platforms; the bound check runs in int64.
		size64 := int64(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		offset += 8
		if size64 > int64(len(data)-offset) {
			return fmt.Errorf("wav chunk '%s' of %d bytes overruns the stream", id, size64)
		}
		size := int(size64)
		body := data[offset : offset+size]

		switch id {
		case "fmt ":
			f, err := parseFormatChunk(body)
			if err != nil {
				return err
			}
			format = f
		case "data":
			samples = body
			haveData = true
		}

		offset += size
		// Chunk bodies are word aligned; an odd size carries a pad byte.
		if size%2 == 1 {
			offset++
		}
	}

	if format == nil {
		return ErrNoFormatChunk
	}
	if !haveData {
		return ErrNoDataChunk
	}
	if format.channels == 0 || format.channels > 64 {
		return fmt.Errorf("wav stream declares %d channels", format.channels)
	}
	if format.sampleRate == 0 {
		return fmt.Errorf("wav stream declares a sample rate of 0")
	}

	var bufferFormat resources.AudioFormat
	switch format.format {
	case wavFormatPCM:
		switch format.bitsPerSample {
		case 8, 16, 24, 32:
		default:
			return fmt.Errorf("unsupported pcm sample width %d", format.bitsPerSample)
		}
		bufferFormat = resources.AudioFormatPCM
	case wavFormatIEEEFloat:
		switch format.bitsPerSample {
		case 32, 64:
		default:
			return fmt.Errorf("unsupported float sample width %d", format.bitsPerSample)
		}
		bufferFormat = resources.AudioFormatFloat
	default:
		return fmt.Errorf("unsupported wav format tag 0x%04X", format.format)
	}

	frameSize := int(format.channels) * int(format.bitsPerSample) / 8
	if len(samples)%frameSize != 0 {
		return fmt.Errorf("wav data of %d bytes is not whole %d byte frames", len(samples), frameSize)
	}

	buffer.Format = bufferFormat
	buffer.Channels = uint8(format.channels)
	buffer.SampleRate = format.sampleRate
	buffer.BitsPerSample = format.bitsPerSample
	buffer.FrameCount = uint32(len(samples) / frameSize)
	buffer.Samples = append([]byte(nil), samples...)
	return nil
}

func parseFormatChunk(body []byte) (*wavFormat, error) {
	if len(body) < 16 {
		return nil, fmt.Errorf("wav fmt chunk truncated at %d bytes", len(body))
	}
	f := &wavFormat{
		format:        binary.LittleEndian.Uint16(body[0:2]),
		channels:      binary.LittleEndian.Uint16(body[2:4]),
		sampleRate:    binary.LittleEndian.Uint32(body[4:8]),
		blockAlign:    binary.LittleEndian.Uint16(body[12:14]),
		bitsPerSample: binary.LittleEndian.Uint16(body[14:16]),
	}
	if f.format == wavFormatExtensible {
		// Base fields, cbSize, valid bits, channel mask, then the sub
		// format GUID whose leading two bytes hold the real tag.
		if len(body) < 40 {
			return nil, fmt.Errorf("wav extensible fmt chunk truncated at %d bytes", len(body))
		}
		f.format = binary.LittleEndian.Uint16(body[24:26])
	}
	return f, nil
}

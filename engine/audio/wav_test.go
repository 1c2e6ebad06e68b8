package audio

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vesta-engine/vesta/engine/resources"
)

func riff(chunks ...[]byte) []byte {
	var body bytes.Buffer
	body.WriteString("WAVE")
	for _, c := range chunks {
		body.Write(c)
	}
	var out bytes.Buffer
	out.WriteString("RIFF")
	binary.Write(&out, binary.LittleEndian, uint32(body.Len()))
	out.Write(body.Bytes())
	return out.Bytes()
}

func chunk(id string, body []byte) []byte {
	var out bytes.Buffer
	out.WriteString(id)
	binary.Write(&out, binary.LittleEndian, uint32(len(body)))
	out.Write(body)
	if len(body)%2 == 1 {
		out.WriteByte(0)
	}
	return out.Bytes()
}

func fmtChunk(format, channels, sampleRate, bits int) []byte {
	var b bytes.Buffer
	binary.Write(&b, binary.LittleEndian, uint16(format))
	binary.Write(&b, binary.LittleEndian, uint16(channels))
	binary.Write(&b, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&b, binary.LittleEndian, uint32(sampleRate*channels*bits/8))
	binary.Write(&b, binary.LittleEndian, uint16(channels*bits/8))
	binary.Write(&b, binary.LittleEndian, uint16(bits))
	return chunk("fmt ", b.Bytes())
}

func extensibleFmtChunk(subFormat, channels, sampleRate, bits int) []byte {
	var b bytes.Buffer
	binary.Write(&b, binary.LittleEndian, uint16(0xFFFE))
	binary.Write(&b, binary.LittleEndian, uint16(channels))
	binary.Write(&b, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&b, binary.LittleEndian, uint32(sampleRate*channels*bits/8))
	binary.Write(&b, binary.LittleEndian, uint16(channels*bits/8))
	binary.Write(&b, binary.LittleEndian, uint16(bits))
	binary.Write(&b, binary.LittleEndian, uint16(22))
	binary.Write(&b, binary.LittleEndian, uint16(bits))
	binary.Write(&b, binary.LittleEndian, uint32(0x3))
	binary.Write(&b, binary.LittleEndian, uint16(subFormat))
	b.Write([]byte{0x00, 0x00, 0x00, 0x00, 0x10, 0x00, 0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71})
	return chunk("fmt ", b.Bytes())
}

func TestDecodeWAVPCM16Stereo(t *testing.T) {
	samples := []byte{
		0x01, 0x00, 0x02, 0x00,
		0x03, 0x00, 0x04, 0x00,
		0xFF, 0x7F, 0x00, 0x80,
	}
	data := riff(fmtChunk(1, 2, 44100, 16), chunk("data", samples))

	var buffer resources.AudioBuffer
	require.NoError(t, DecodeWAVInto(&buffer, data))

	assert.Equal(t, resources.AudioFormatPCM, buffer.Format)
	assert.Equal(t, uint8(2), buffer.Channels)
	assert.Equal(t, uint32(44100), buffer.SampleRate)
	assert.Equal(t, uint16(16), buffer.BitsPerSample)
	assert.Equal(t, uint32(3), buffer.FrameCount)
	assert.Equal(t, samples, buffer.Samples)

	// The decoded samples must survive the source payload being recycled.
	for i := range data {
		data[i] = 0
	}
	assert.Equal(t, []byte{0x01, 0x00}, buffer.Samples[:2])
}

func TestDecodeWAVFloat32Mono(t *testing.T) {
	var samples bytes.Buffer
	for _, v := range []float32{0.0, 0.5, -0.5, 1.0} {
		binary.Write(&samples, binary.LittleEndian, v)
	}
	data := riff(fmtChunk(3, 1, 48000, 32), chunk("data", samples.Bytes()))

	var buffer resources.AudioBuffer
	require.NoError(t, DecodeWAVInto(&buffer, data))

	assert.Equal(t, resources.AudioFormatFloat, buffer.Format)
	assert.Equal(t, uint8(1), buffer.Channels)
	assert.Equal(t, uint32(48000), buffer.SampleRate)
	assert.Equal(t, uint16(32), buffer.BitsPerSample)
	assert.Equal(t, uint32(4), buffer.FrameCount)
}

func TestDecodeWAVExtensiblePCM(t *testing.T) {
	samples := make([]byte, 2*2*4)
	data := riff(extensibleFmtChunk(1, 2, 22050, 16), chunk("data", samples))

	var buffer resources.AudioBuffer
	require.NoError(t, DecodeWAVInto(&buffer, data))

	assert.Equal(t, resources.AudioFormatPCM, buffer.Format)
	assert.Equal(t, uint32(4), buffer.FrameCount)
}

func TestDecodeWAVSkipsUnknownChunks(t *testing.T) {
	samples := []byte{0x10, 0x20}
	data := riff(
		chunk("LIST", []byte("INFOsoftware")),
		fmtChunk(1, 1, 8000, 16),
		// Odd sized chunk forces the pad byte path.
		chunk("cue ", []byte{0xAB, 0xCD, 0xEF}),
		chunk("data", samples),
	)

	var buffer resources.AudioBuffer
	require.NoError(t, DecodeWAVInto(&buffer, data))
	assert.Equal(t, uint32(1), buffer.FrameCount)
	assert.Equal(t, samples, buffer.Samples)
}

func TestDecodeWAVRejectsMalformedStreams(t *testing.T) {
	var buffer resources.AudioBuffer

	assert.ErrorIs(t, DecodeWAVInto(&buffer, []byte("OggS stream")), ErrNotWAV)
	assert.ErrorIs(t, DecodeWAVInto(&buffer, nil), ErrNotWAV)
	assert.ErrorIs(t, DecodeWAVInto(&buffer, riff(fmtChunk(1, 1, 8000, 16))), ErrNoDataChunk)
	assert.ErrorIs(t, DecodeWAVInto(&buffer, riff(chunk("data", []byte{0, 0}))), ErrNoFormatChunk)

	// A-law is a real tag the decoder does not handle.
	err := DecodeWAVInto(&buffer, riff(fmtChunk(6, 1, 8000, 8), chunk("data", []byte{0})))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "format tag")

	err = DecodeWAVInto(&buffer, riff(fmtChunk(1, 1, 8000, 12), chunk("data", []byte{0, 0})))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sample width")

	// Chunk header promises more bytes than the stream holds.
	truncated := riff(fmtChunk(1, 1, 8000, 16), chunk("data", []byte{0, 0, 0, 0}))
	truncated = truncated[:len(truncated)-2]
	assert.Error(t, DecodeWAVInto(&buffer, truncated))

	// A size field past the int32 range must fail the bound check rather
	// than wrap on platforms where int is 32 bits.
	var oversize bytes.Buffer
	oversize.WriteString("data")
	binary.Write(&oversize, binary.LittleEndian, uint32(0x80000010))
	err = DecodeWAVInto(&buffer, riff(fmtChunk(1, 1, 8000, 16), oversize.Bytes()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overruns")

	// 3 bytes cannot be whole 16 bit mono frames.
	err = DecodeWAVInto(&buffer, riff(fmtChunk(1, 1, 8000, 16), chunk("data", []byte{0, 0, 0})))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frames")
}

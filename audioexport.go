package zrythm

import (
	"encoding/binary"
	"fmt"
	"math"
)

const wavChannels = 2

// Wav encodes an interleaved stereo buffer as a .wav file. If pcm16 is true,
// the samples are converted to 16-bit signed integers, otherwise they are
// stored as IEEE floats.
func Wav(buffer []float32, sampleRate int, pcm16 bool) ([]byte, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("Wav failed: invalid sample rate %d", sampleRate)
	}
	size := 58 + 4*len(buffer)
	out := appendWavHeader(make([]byte, 0, size), len(buffer), sampleRate, pcm16)
	return appendSamples(out, buffer, pcm16), nil
}

// Raw encodes an interleaved stereo buffer without any header.
func Raw(buffer []float32, pcm16 bool) []byte {
	return appendSamples(nil, buffer, pcm16)
}

// PCM16 appends the 16-bit little-endian conversion of buffer to dst and
// returns the extended slice. Values outside [-1, 1] are clipped.
func PCM16(buffer []float32, dst []byte) []byte {
	for _, v := range buffer {
		s := max(min(int(v*math.MaxInt16), math.MaxInt16), -math.MaxInt16)
		dst = binary.LittleEndian.AppendUint16(dst, uint16(int16(s)))
	}
	return dst
}

func appendSamples(dst []byte, buffer []float32, pcm16 bool) []byte {
	if pcm16 {
		return PCM16(buffer, dst)
	}
	for _, v := range buffer {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
	}
	return dst
}

// appendWavHeader appends the RIFF header for n interleaved stereo samples.
// Float files carry the fmt extension size and a fact chunk.
func appendWavHeader(dst []byte, n, sampleRate int, pcm16 bool) []byte {
	le := binary.LittleEndian
	width, format, fmtSize := 4, uint16(3), uint32(18)
	if pcm16 {
		width, format, fmtSize = 2, 1, 16
	}
	dataSize := uint32(width * n)
	riffSize := 4 + 8 + fmtSize + 8 + dataSize
	if !pcm16 {
		riffSize += 12
	}
	dst = append(dst, "RIFF"...)
	dst = le.AppendUint32(dst, riffSize)
	dst = append(dst, "WAVEfmt "...)
	dst = le.AppendUint32(dst, fmtSize)
	dst = le.AppendUint16(dst, format)
	dst = le.AppendUint16(dst, wavChannels)
	dst = le.AppendUint32(dst, uint32(sampleRate))
	dst = le.AppendUint32(dst, uint32(sampleRate*wavChannels*width))
	dst = le.AppendUint16(dst, uint16(wavChannels*width))
	dst = le.AppendUint16(dst, uint16(8*width))
	if !pcm16 {
		dst = le.AppendUint16(dst, 0)
		dst = append(dst, "fact"...)
		dst = le.AppendUint32(dst, 4)
		dst = le.AppendUint32(dst, uint32(n/wavChannels))
	}
	dst = append(dst, "data"...)
	return le.AppendUint32(dst, dataSize)
}

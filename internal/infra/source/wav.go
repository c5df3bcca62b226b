package source

import (
	"bytes"
	"encoding/binary"
)

// utterance accumulates microphone frames until the speaker falls silent.
type utterance struct {
	samples    []int16
	threshold  int16
	silent     int
	minSamples int
	maxSilence int
	maxSamples int
}

func newUtterance(sampleRate int, threshold int16) *utterance {
	return &utterance{
		samples:    make([]int16, 0, sampleRate*5),
		threshold:  threshold,
		minSamples: sampleRate,
		maxSilence: sampleRate,
		maxSamples: sampleRate * 10,
	}
}

// add appends a frame and reports whether the utterance is complete.
func (u *utterance) add(frame []int16) bool {
	u.samples = append(u.samples, frame...)

	loud := false
	for _, s := range frame {
		if s > u.threshold || s < -u.threshold {
			loud = true
			break
		}
	}
	if loud {
		u.silent = 0
	} else {
		u.silent += len(frame)
	}

	if u.silent > u.maxSilence && len(u.samples) > u.minSamples {
		return true
	}
	return len(u.samples) > u.maxSamples
}

// samplesToWav wraps mono 16-bit PCM in a RIFF header.
func samplesToWav(samples []int16, sampleRate int) []byte {
	var buf bytes.Buffer

	dataSize := len(samples) * 2
	fileSize := 36 + dataSize

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, int32(fileSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, int32(16))
	binary.Write(&buf, binary.LittleEndian, int16(1))
	binary.Write(&buf, binary.LittleEndian, int16(1))
	binary.Write(&buf, binary.LittleEndian, int32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, int32(sampleRate*2))
	binary.Write(&buf, binary.LittleEndian, int16(2))
	binary.Write(&buf, binary.LittleEndian, int16(16))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, int32(dataSize))
	binary.Write(&buf, binary.LittleEndian, samples)

	return buf.Bytes()
}

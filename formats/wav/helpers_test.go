// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"

	"github.com/ik5/audstream/audio"
)

type rawChunk struct {
	id   string
	body []byte
}

func fmtBody(tag uint16, channels, sampleRate, bits int) []byte {
	body := new(bytes.Buffer)
	blockAlign := channels * bits / 8
	binary.Write(body, binary.LittleEndian, tag)
	binary.Write(body, binary.LittleEndian, uint16(channels))
	binary.Write(body, binary.LittleEndian, uint32(sampleRate))
	binary.Write(body, binary.LittleEndian, uint32(sampleRate*blockAlign))
	binary.Write(body, binary.LittleEndian, uint16(blockAlign))
	binary.Write(body, binary.LittleEndian, uint16(bits))
	return body.Bytes()
}

// buildWAV lays out the chunks after a RIFF/WAVE header with a correct
// RIFF size, padding odd-sized chunks.
func buildWAV(chunks ...rawChunk) []byte {
	body := new(bytes.Buffer)
	body.WriteString("WAVE")
	for _, c := range chunks {
		body.WriteString(c.id)
		binary.Write(body, binary.LittleEndian, uint32(len(c.body)))
		body.Write(c.body)
		if len(c.body)%2 == 1 {
			body.WriteByte(0)
		}
	}

	out := new(bytes.Buffer)
	out.WriteString("RIFF")
	binary.Write(out, binary.LittleEndian, uint32(body.Len()))
	out.Write(body.Bytes())
	return out.Bytes()
}

func simpleWAV(f audio.Format, pcm []byte) []byte {
	return buildWAV(
		rawChunk{"fmt ", fmtBody(1, f.Channels, f.SampleRate, f.BitsPerSample)},
		rawChunk{"data", pcm},
	)
}

func writeTemp(t testing.TB, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// encodeGoAudio writes 16-bit samples with the go-audio encoder and returns
// the path together with the PCM bytes it should contain.
func encodeGoAudio(t testing.TB, rate, channels int, samples []int) (string, []byte) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "encoded.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	enc := gowav.NewEncoder(f, rate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: rate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(s)))
	}
	return path, pcm
}

func rampPCM(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i) ^ byte(i>>8)*3
	}
	return data
}

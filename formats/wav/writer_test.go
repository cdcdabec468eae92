// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ik5/audstream/audio"
)

func TestWritePCM_Header(t *testing.T) {
	t.Parallel()

	f := audio.Format{Channels: 2, SampleRate: 48000, BitsPerSample: 24}
	pcm := rampPCM(600)

	var buf bytes.Buffer
	if err := WritePCM(&buf, f, pcm); err != nil {
		t.Fatalf("WritePCM() error = %v", err)
	}

	data := buf.Bytes()
	if len(data) != 644 {
		t.Fatalf("file size = %d, want 644", len(data))
	}

	checks := []struct {
		name string
		got  uint32
		want uint32
	}{
		{"riff size", binary.LittleEndian.Uint32(data[4:8]), 636},
		{"fmt size", binary.LittleEndian.Uint32(data[16:20]), 16},
		{"format tag", uint32(binary.LittleEndian.Uint16(data[20:22])), 1},
		{"channels", uint32(binary.LittleEndian.Uint16(data[22:24])), 2},
		{"sample rate", binary.LittleEndian.Uint32(data[24:28]), 48000},
		{"byte rate", binary.LittleEndian.Uint32(data[28:32]), 288000},
		{"block align", uint32(binary.LittleEndian.Uint16(data[32:34])), 6},
		{"bits", uint32(binary.LittleEndian.Uint16(data[34:36])), 24},
		{"data size", binary.LittleEndian.Uint32(data[40:44]), 600},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}

	info, err := parse(data)
	if err != nil {
		t.Fatalf("ParseHeader() of written file error = %v", err)
	}
	if info.Format != f || info.DataSize != 600 || !bytes.Equal(data[info.DataOffset:], pcm) {
		t.Errorf("ParseHeader() = %+v", info)
	}
}

func TestWritePCM_Rejects(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	err := WritePCM(&buf, audio.Format{Channels: 2, SampleRate: 8000, BitsPerSample: 16}, make([]byte, 6))
	if !errors.Is(err, audio.ErrInvalidArgument) {
		t.Errorf("WritePCM(torn frame) error = %v, want ErrInvalidArgument", err)
	}

	err = WritePCM(&buf, audio.Format{Channels: 1, SampleRate: 8000, BitsPerSample: 12}, nil)
	if !errors.Is(err, audio.ErrUnsupportedBitDepth) {
		t.Errorf("WritePCM(12 bit) error = %v, want ErrUnsupportedBitDepth", err)
	}

	if buf.Len() != 0 {
		t.Errorf("rejected writes left %d bytes behind", buf.Len())
	}
}

func TestWriter_PatchesSizes(t *testing.T) {
	t.Parallel()

	f := audio.Format{Channels: 1, SampleRate: 16000, BitsPerSample: 16}
	path := filepath.Join(t.TempDir(), "out.wav")

	file, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	w, err := NewWriter(file, f)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}

	pcm := rampPCM(3000)
	for off := 0; off < len(pcm); off += 700 {
		end := min(off+700, len(pcm))
		if _, err := w.Write(pcm[off:end]); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if w.Written() != 3000 {
		t.Errorf("Written() = %d, want 3000", w.Written())
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := file.Close(); err != nil {
		t.Fatal(err)
	}

	src, err := OpenMapped(path)
	if err != nil {
		t.Fatalf("OpenMapped() of written file error = %v", err)
	}
	defer src.Close()

	got, err := audio.ReadAll(src)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, pcm) {
		t.Errorf("read back %d bytes that differ from what was written", len(got))
	}
}

func TestWriter_TornTrailingFrame(t *testing.T) {
	t.Parallel()

	f := audio.Format{Channels: 2, SampleRate: 8000, BitsPerSample: 16}
	path := filepath.Join(t.TempDir(), "torn.wav")

	file, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	w, err := NewWriter(file, f)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(make([]byte, 10)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	info, err := parse(data)
	if err != nil {
		t.Fatalf("ParseHeader() error = %v", err)
	}
	if info.DataSize != 8 {
		t.Errorf("DataSize = %d, want 8", info.DataSize)
	}
}

func TestNewWriter_InvalidFormat(t *testing.T) {
	t.Parallel()

	_, err := NewWriter(nil, audio.Format{})
	if !errors.Is(err, audio.ErrInvalidArgument) {
		t.Errorf("NewWriter() error = %v, want ErrInvalidArgument", err)
	}
}

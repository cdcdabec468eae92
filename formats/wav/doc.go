// SPDX-License-Identifier: EPL-2.0

// Package wav reads and writes PCM WAV files.
//
// # Header Parsing
//
// ParseHeader walks the RIFF chunk list of a WAV file, locates the fmt and
// data chunks and validates them:
//   - the file must start with RIFF....WAVE
//   - the declared RIFF size must match the file size
//   - the format tag must be PCM (1), with 8, 16, 24 or 32 bits per sample
//   - the data chunk must fit inside the file
//
// Unknown chunks are skipped, honouring the pad byte after odd-sized chunks.
// Every failure wraps audio.ErrInvalidInput together with one of the
// package errors, so both can be tested with errors.Is:
//
//	_, err := wav.OpenMapped("music.wav")
//	if errors.Is(err, wav.ErrNotPCM) {
//	    // compressed WAV, not supported
//	}
//
// # Sources
//
// OpenMapped maps the whole file read-only (golang.org/x/exp/mmap) and copies
// PCM straight out of the mapping. A mapping failure is reported as
// audio.ErrPlatform.
//
// OpenStream reads the data chunk through a github.com/go-audio/wav decoder
// instead, keeping only the read buffer in memory. Rewinding recreates the
// decoder position with Decoder.Rewind.
//
// Both implement audio.Source and only hand out whole frames. Opener selects
// between them for use with an audio.Registry:
//
//	registry.Register("wav", wav.Opener{})
//
// # Writing WAV Files
//
// WritePCM writes a canonical 44 byte header followed by the PCM data.
// Writer streams into an io.WriteSeeker and patches the sizes on Close:
//
//	f, _ := os.Create("capture.wav")
//	w, _ := wav.NewWriter(f, format)
//	io.Copy(w, pcm)
//	w.Close()
//	f.Close()
package wav

// SPDX-License-Identifier: EPL-2.0

// Package audstream streams audio files to a playback engine.
//
// A file is never loaded whole. Its PCM bytes flow through a ring of banks
// that a loader goroutine refills while the engine plays the previous one,
// so a long soundtrack costs a few hundred kilobytes of memory no matter
// how long it runs.
//
// # Supported Formats
//
// Sources are provided for:
//   - WAV (8, 16, 24 and 32 bit PCM) via formats/wav, memory mapped or streamed
//   - Ogg Vorbis via formats/vorbis
//   - MP3 via formats/mp3
//   - AIFF via formats/aiff
//
// NewRegistry maps the usual file extensions to them.
//
// # Quick Start
//
//	eng, err := otoengine.New(otoengine.Options{})
//	if err != nil {
//	    return err
//	}
//	defer eng.Close()
//
//	inst, err := audstream.Open(eng, "theme.ogg", stream.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer inst.Close()
//
//	inst.Play(true) // loop until stopped
//
// # Engines
//
// The engine package defines what the streaming core needs from a device:
// voices that accept byte buffers and call back when their queue runs low.
// Three engines are provided:
//   - engine/otoengine plays through the platform audio device
//   - engine/beepengine mixes voices with the beep speaker
//   - engine.Capture renders in real time to any io.Writer
//
// # Short Sounds
//
// LoadSoundEffect decodes a file into memory once and plays it any number
// of times, overlapping:
//
//	fx, err := audstream.LoadSoundEffect(eng, "click.wav", stream.DefaultConfig())
//	fx.Play(0.8)
//
// The processor package groups instances into music, sfx and voice
// categories with their own volumes.
//
// # Conversion
//
// Convert renders a whole source into another format using the same sample
// pipeline the device engines use:
//
//	pcm, err := audstream.Convert(src, audio.Format{Channels: 1, SampleRate: 8000, BitsPerSample: 16}, 4096)
//
// # Errors
//
// All errors wrap audio.ErrInvalidInput, audio.ErrInvalidArgument or
// audio.ErrPlatform, so callers can tell a bad file from a bad call from a
// missing device with errors.Is.
package audstream

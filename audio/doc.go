// SPDX-License-Identifier: EPL-2.0

// Package audio provides the PCM building blocks shared by sources, engines
// and the streaming core.
//
// # Sources
//
// A Source is a seekable stream of interleaved little-endian PCM bytes:
//
//	type Source interface {
//	    io.Reader
//	    SeekToStart() error
//	    AtEnd() bool
//	    Format() Format
//	    Len() int64
//	    Close() error
//	}
//
// Read only hands out whole frames and returns io.EOF once the stream is
// exhausted. The streaming core wraps to the start with SeekToStart when a
// sound loops. Format packages under formats/ provide the implementations.
//
// # Format
//
// Format carries channel count, sample rate and bit depth. BlockAlign and
// ByteRate are derived; WithSpeed scales the sample rate by an integer
// playback multiplier.
//
// # Sample Processing
//
// Engines that render to a device work on float32 samples in [-1.0, 1.0].
// PCMReader converts a byte stream to samples, Resampler changes the rate
// using cubic interpolation and ChannelMixer remaps channel layouts:
//
//	samples := audio.NewPCMReader(queue, voiceFormat)
//	resampled := audio.NewResampler(samples, 48000)
//	stereo := audio.NewChannelMixer(resampled, 2)
//
// A reader that returns 0 samples with a nil error is starved, not
// finished. The resampler keeps its interpolation state across starved reads
// so it can sit on top of a live queue.
//
// # Opener Registry
//
// The registry maps file extensions to openers:
//
//	registry := audio.NewRegistry()
//	registry.Register("wav", wav.Opener{})
//	src, err := registry.Open("theme.wav")
//
// # Errors
//
// ErrInvalidInput, ErrInvalidArgument and ErrPlatform are the error
// categories used across the module. Packages wrap them together with their
// own sentinel errors, so both can be matched with errors.Is:
//
//	if errors.Is(err, audio.ErrInvalidInput) {
//	    // bad or missing file
//	}
package audio

// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/ik5/audstream/audio"
)

const (
	DefaultBankCount         = 2
	DefaultBankSize          = 64 * 1024
	DefaultChunkSize         = 4096
	DefaultMaxPendingBuffers = 5

	// MaxVoiceRate caps the sample rate of a sped up voice.
	MaxVoiceRate = 1 << 24
)

// Config describes how an Instance buffers its source.
type Config struct {
	// Name identifies the instance in log lines, usually the file path.
	Name string
	// Speed is the initial playback speed multiplier.
	Speed uint
	// Volume is the initial volume in [0, 1].
	Volume float32
	// BankCount is the number of banks in the ring, at least 2.
	BankCount int
	// BankSize is the capacity of each bank in bytes. It is rounded down to
	// a whole number of frames.
	BankSize int
	// ChunkSize is the number of bytes submitted per buffer at speed 1. It
	// scales with the speed multiplier.
	ChunkSize int
	// MaxPendingBuffers is the pending count up to which the callback
	// keeps submitting, so a voice holds at most one buffer more.
	MaxPendingBuffers int
	Logger            *zerolog.Logger

	fillHook func(bank, n int)
}

func DefaultConfig() Config {
	return Config{
		Speed:             1,
		Volume:            1,
		BankCount:         DefaultBankCount,
		BankSize:          DefaultBankSize,
		ChunkSize:         DefaultChunkSize,
		MaxPendingBuffers: DefaultMaxPendingBuffers,
	}
}

func (c Config) Validate() error {
	switch {
	case c.Speed == 0:
		return fmt.Errorf("%w: %w", audio.ErrInvalidArgument, ErrZeroMultiplier)
	case c.Speed > MaxVoiceRate:
		return fmt.Errorf("%w: %w: %d", audio.ErrInvalidArgument, ErrSpeedRange, c.Speed)
	case !validVolume(c.Volume):
		return fmt.Errorf("%w: %w: %v", audio.ErrInvalidArgument, ErrVolumeRange, c.Volume)
	case c.BankCount < 2:
		return fmt.Errorf("%w: bank count %d, need at least 2", audio.ErrInvalidArgument, c.BankCount)
	case c.BankSize <= 0:
		return fmt.Errorf("%w: bank size %d", audio.ErrInvalidArgument, c.BankSize)
	case c.ChunkSize <= 0:
		return fmt.Errorf("%w: chunk size %d", audio.ErrInvalidArgument, c.ChunkSize)
	case c.MaxPendingBuffers < 1:
		return fmt.Errorf("%w: max pending buffers %d", audio.ErrInvalidArgument, c.MaxPendingBuffers)
	}
	return nil
}

func (c Config) logger() zerolog.Logger {
	if c.Logger == nil {
		return zerolog.Nop()
	}
	return *c.Logger
}

// checkSpeed rejects multipliers that are zero or push the voice rate of f
// past MaxVoiceRate.
func checkSpeed(f audio.Format, m uint) error {
	if m == 0 {
		return fmt.Errorf("%w: %w", audio.ErrInvalidArgument, ErrZeroMultiplier)
	}
	if m > MaxVoiceRate/uint(f.SampleRate) {
		return fmt.Errorf("%w: %w: %d at %d Hz", audio.ErrInvalidArgument, ErrSpeedRange, m, f.SampleRate)
	}
	return nil
}

func validVolume(v float32) bool {
	return !math.IsNaN(float64(v)) && v >= 0 && v <= 1
}

// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ik5/audstream/audio"
	"github.com/ik5/audstream/engine"
)

// SoundEffect is a short sound decoded fully into memory. Every Play gets
// its own voice, so plays overlap freely.
type SoundEffect struct {
	eng    engine.Engine
	name   string
	format audio.Format
	data   []byte
	chunk  int
	max    int
	log    zerolog.Logger

	mu     sync.Mutex
	active map[*effectPlay]struct{}
	closed bool
}

type effectPlay struct {
	mu     sync.Mutex
	voice  engine.Voice
	offset int
	done   bool
}

// LoadSoundEffect reads src to the end and closes it. Only Name, ChunkSize,
// MaxPendingBuffers and Logger are taken from cfg.
func LoadSoundEffect(eng engine.Engine, src audio.Source, cfg Config) (*SoundEffect, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil source", audio.ErrInvalidArgument)
	}
	defer src.Close()

	if eng == nil {
		return nil, fmt.Errorf("%w: nil engine", audio.ErrInvalidArgument)
	}

	format := src.Format()
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", audio.ErrInvalidInput, err)
	}

	data, err := audio.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", audio.ErrInvalidInput, cfg.Name, err)
	}

	chunk := cfg.ChunkSize
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	chunk = max(chunk-chunk%format.BlockAlign(), format.BlockAlign())

	pending := cfg.MaxPendingBuffers
	if pending < 1 {
		pending = DefaultMaxPendingBuffers
	}

	s := &SoundEffect{
		eng:    eng,
		name:   cfg.Name,
		format: format,
		data:   data,
		chunk:  chunk,
		max:    pending,
		log:    cfg.logger().With().Str("effect", cfg.Name).Logger(),
		active: make(map[*effectPlay]struct{}),
	}

	s.log.Info().Str("format", format.String()).Int("bytes", len(data)).Msgf("Loaded %s", cfg.Name)

	return s, nil
}

// Play starts one more copy of the sound at the given volume.
func (s *SoundEffect) Play(volume float32) error {
	if !validVolume(volume) {
		return fmt.Errorf("%w: %w: %v", audio.ErrInvalidArgument, ErrVolumeRange, volume)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	p := &effectPlay{}
	v, err := s.eng.NewVoice(s.format, func(v engine.Voice) { s.feed(p, v) })
	if err != nil {
		return fmt.Errorf("creating voice: %w", err)
	}
	p.voice = v
	s.active[p] = struct{}{}

	v.SetVolume(volume)
	v.Play()

	return nil
}

func (s *SoundEffect) feed(p *effectPlay, v engine.Voice) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done {
		return
	}

	for p.offset < len(s.data) && v.PendingBufferCount() <= s.max {
		n := min(s.chunk, len(s.data)-p.offset)
		if err := v.SubmitBuffer(s.data[p.offset : p.offset+n]); err != nil {
			s.log.Error().Err(err).Msg("submitting buffer failed")
			return
		}
		p.offset += n
	}

	if p.offset >= len(s.data) && v.PendingBufferCount() == 0 {
		p.done = true
		_ = v.Close()

		s.mu.Lock()
		delete(s.active, p)
		s.mu.Unlock()
	}
}

// Active is the number of plays still sounding.
func (s *SoundEffect) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.active)
}

func (s *SoundEffect) Format() audio.Format { return s.format }

// Len is the size of the decoded sound in bytes.
func (s *SoundEffect) Len() int { return len(s.data) }

// Close stops every active play. Further plays fail with ErrClosed.
func (s *SoundEffect) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	plays := make([]*effectPlay, 0, len(s.active))
	for p := range s.active {
		plays = append(plays, p)
	}
	clear(s.active)
	s.mu.Unlock()

	for _, p := range plays {
		p.mu.Lock()
		p.done = true
		p.voice.Stop()
		_ = p.voice.Close()
		p.mu.Unlock()
	}

	s.log.Info().Msgf("Destroyed %s", s.name)

	return nil
}

// SPDX-License-Identifier: EPL-2.0

package processor

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ik5/audstream/audio"
	"github.com/ik5/audstream/engine"
	"github.com/ik5/audstream/stream"
)

// Processor owns named stream instances in three categories. The volume
// of every instance is master volume times its category volume.
type Processor struct {
	eng    engine.Engine
	opener audio.Opener
	cfg    stream.Config
	log    zerolog.Logger

	mu      sync.Mutex
	master  float32
	volumes [numCategories]float32
	tracks  [numCategories]map[string]*stream.Instance
	closed  bool
}

// New returns a Processor that opens paths with opener and streams them
// on eng. cfg is the template for every instance; its Volume is ignored.
func New(eng engine.Engine, opener audio.Opener, cfg stream.Config) (*Processor, error) {
	if eng == nil || opener == nil {
		return nil, fmt.Errorf("%w: nil engine or opener", audio.ErrInvalidArgument)
	}

	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}

	p := &Processor{
		eng:    eng,
		opener: opener,
		cfg:    cfg,
		log:    log.With().Str("component", "processor").Logger(),
		master: 1,
	}
	for c := range p.tracks {
		p.volumes[c] = 1
		p.tracks[c] = make(map[string]*stream.Instance)
	}

	return p, nil
}

func (p *Processor) AddMusic(name, path string, loop bool) error {
	return p.Add(Music, name, path, loop)
}

func (p *Processor) AddSFX(name, path string, loop bool) error {
	return p.Add(SFX, name, path, loop)
}

func (p *Processor) AddVoice(name, path string, loop bool) error {
	return p.Add(Voice, name, path, loop)
}

// Add opens path, registers it under name and starts playing it.
func (p *Processor) Add(c Category, name, path string, loop bool) error {
	if !c.valid() {
		return fmt.Errorf("%w: %w: %d", audio.ErrInvalidArgument, ErrUnknownCategory, c)
	}

	p.mu.Lock()
	err := p.checkNameLocked(c, name)
	cfg := p.cfg
	cfg.Name = path
	cfg.Volume = p.effectiveLocked(c)
	p.mu.Unlock()

	if err != nil {
		return err
	}

	src, err := p.opener.Open(path)
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	inst, err := stream.New(p.eng, src, cfg)
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// The lock was released while opening.
	if err := p.checkNameLocked(c, name); err != nil {
		_ = inst.Close()
		return err
	}
	if err := inst.SetVolume(p.effectiveLocked(c)); err != nil {
		_ = inst.Close()
		return fmt.Errorf("%w", err)
	}
	if err := inst.Play(loop); err != nil {
		_ = inst.Close()
		return fmt.Errorf("%w", err)
	}

	p.tracks[c][name] = inst
	p.log.Debug().Stringer("category", c).Str("name", name).Str("path", path).Bool("loop", loop).Msg("sound added")

	return nil
}

func (p *Processor) checkNameLocked(c Category, name string) error {
	if p.closed {
		return ErrClosed
	}
	if _, ok := p.tracks[c][name]; ok {
		return fmt.Errorf("%w: %s %q", ErrDuplicateName, c, name)
	}
	return nil
}

func (p *Processor) effectiveLocked(c Category) float32 {
	return p.master * p.volumes[c]
}

// Remove closes the sound registered under name.
func (p *Processor) Remove(c Category, name string) error {
	if !c.valid() {
		return fmt.Errorf("%w: %w: %d", audio.ErrInvalidArgument, ErrUnknownCategory, c)
	}

	p.mu.Lock()
	inst, ok := p.tracks[c][name]
	delete(p.tracks[c], name)
	p.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s %q", ErrNotFound, c, name)
	}

	return inst.Close()
}

func (p *Processor) RemoveMusic(name string) error { return p.Remove(Music, name) }
func (p *Processor) RemoveSFX(name string) error   { return p.Remove(SFX, name) }
func (p *Processor) RemoveVoice(name string) error { return p.Remove(Voice, name) }

// ClearAll closes every sound concurrently and returns the first error.
func (p *Processor) ClearAll() error {
	p.mu.Lock()
	var all []*stream.Instance
	for c := range p.tracks {
		for _, inst := range p.tracks[c] {
			all = append(all, inst)
		}
		clear(p.tracks[c])
	}
	p.mu.Unlock()

	var g errgroup.Group
	for _, inst := range all {
		g.Go(inst.Close)
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w", err)
	}

	p.log.Debug().Int("sounds", len(all)).Msg("cleared")

	return nil
}

// Close clears every sound. Adding afterwards fails with ErrClosed.
func (p *Processor) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	return p.ClearAll()
}

func (p *Processor) SetMasterVolume(v float32) error {
	if err := checkVolume(v); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.master = v
	return p.applyLocked()
}

func (p *Processor) SetCategoryVolume(c Category, v float32) error {
	if !c.valid() {
		return fmt.Errorf("%w: %w: %d", audio.ErrInvalidArgument, ErrUnknownCategory, c)
	}
	if err := checkVolume(v); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.volumes[c] = v
	return p.applyLocked()
}

func (p *Processor) SetMusicVolume(v float32) error { return p.SetCategoryVolume(Music, v) }
func (p *Processor) SetSFXVolume(v float32) error   { return p.SetCategoryVolume(SFX, v) }
func (p *Processor) SetVoiceVolume(v float32) error { return p.SetCategoryVolume(Voice, v) }

func (p *Processor) applyLocked() error {
	var errs []error
	for c := range p.tracks {
		vol := p.effectiveLocked(Category(c))
		for _, inst := range p.tracks[c] {
			if err := inst.SetVolume(vol); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (p *Processor) MasterVolume() float32 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.master
}

// CategoryVolume returns the volume of c, or 0 for an unknown category.
func (p *Processor) CategoryVolume(c Category) float32 {
	if !c.valid() {
		return 0
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.volumes[c]
}

// Get returns the instance registered under name.
func (p *Processor) Get(c Category, name string) (*stream.Instance, bool) {
	if !c.valid() {
		return nil, false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	inst, ok := p.tracks[c][name]
	return inst, ok
}

// Len is the number of sounds in c.
func (p *Processor) Len(c Category) int {
	if !c.valid() {
		return 0
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.tracks[c])
}

func checkVolume(v float32) error {
	if math.IsNaN(float64(v)) || v < 0 || v > 1 {
		return fmt.Errorf("%w: %w: %v", audio.ErrInvalidArgument, stream.ErrVolumeRange, v)
	}
	return nil
}

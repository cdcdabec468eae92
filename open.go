// SPDX-License-Identifier: EPL-2.0

package audstream

import (
	"fmt"

	"github.com/ik5/audstream/audio"
	"github.com/ik5/audstream/engine"
	"github.com/ik5/audstream/formats/aiff"
	"github.com/ik5/audstream/formats/mp3"
	"github.com/ik5/audstream/formats/vorbis"
	"github.com/ik5/audstream/formats/wav"
	"github.com/ik5/audstream/stream"
)

// NewRegistry returns a registry with every format of this module. WAV
// files are memory mapped; register wav.Opener{Streamed: true} under "wav"
// to read them through a decoder instead.
func NewRegistry() *audio.Registry {
	r := audio.NewRegistry()
	r.Register("wav", wav.Opener{})
	r.Register("wave", wav.Opener{})
	r.Register("ogg", vorbis.Opener{})
	r.Register("oga", vorbis.Opener{})
	r.Register("mp3", mp3.Opener{})
	r.Register("aif", aiff.Opener{})
	r.Register("aiff", aiff.Opener{})
	return r
}

// Open opens path with the default registry and streams it on eng.
// cfg.Name defaults to path.
func Open(eng engine.Engine, path string, cfg stream.Config) (*stream.Instance, error) {
	return OpenWith(NewRegistry(), eng, path, cfg)
}

// OpenWith is Open with an explicit opener.
func OpenWith(o audio.Opener, eng engine.Engine, path string, cfg stream.Config) (*stream.Instance, error) {
	src, err := o.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	if cfg.Name == "" {
		cfg.Name = path
	}

	inst, err := stream.New(eng, src, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	return inst, nil
}

// LoadSoundEffect decodes path fully into memory.
func LoadSoundEffect(eng engine.Engine, path string, cfg stream.Config) (*stream.SoundEffect, error) {
	src, err := NewRegistry().Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	if cfg.Name == "" {
		cfg.Name = path
	}

	fx, err := stream.LoadSoundEffect(eng, src, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	return fx, nil
}

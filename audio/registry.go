// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// Opener constructs a Source from a file path.
type Opener interface {
	Open(path string) (Source, error)
}

// OpenerFunc adapts a plain function to Opener.
type OpenerFunc func(path string) (Source, error)

func (f OpenerFunc) Open(path string) (Source, error) { return f(path) }

// Registry for openers by file extension (e.g., "wav", "ogg", "mp3").
type Registry struct {
	openers map[string]Opener

	mtx *sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{
		openers: make(map[string]Opener),
		mtx:     &sync.Mutex{},
	}
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

func (r *Registry) Register(ext string, o Opener) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.openers[normalizeExt(ext)] = o
}

func (r *Registry) Get(ext string) (Opener, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	o, ok := r.openers[normalizeExt(ext)]
	return o, ok
}

// Open picks the opener registered for the extension of path.
func (r *Registry) Open(path string) (Source, error) {
	ext := filepath.Ext(path)
	o, ok := r.Get(ext)
	if !ok {
		return nil, fmt.Errorf("%w: %w: %q", ErrInvalidInput, ErrUnknownFormat, ext)
	}

	src, err := o.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	return src, nil
}

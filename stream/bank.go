// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ik5/audstream/audio"
)

// Bank is one fixed-size buffer in the ring. The mutex guards every field.
type Bank struct {
	mu     sync.Mutex
	data   []byte
	filled int
	ready  bool
}

// Filled returns the number of valid bytes and whether the bank holds a
// completed fill.
func (b *Bank) Filled() (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.filled, b.ready
}

func (b *Bank) Cap() int { return len(b.data) }

func (b *Bank) markUnready() {
	b.mu.Lock()
	b.ready = false
	b.mu.Unlock()
}

// BankSet is a ring of equally sized banks.
type BankSet struct {
	banks []*Bank
}

// NewBankSet allocates n banks of size bytes each.
func NewBankSet(n, size int) *BankSet {
	bs := &BankSet{banks: make([]*Bank, n)}
	for i := range bs.banks {
		bs.banks[i] = &Bank{data: make([]byte, size)}
	}
	return bs
}

func (bs *BankSet) Len() int         { return len(bs.banks) }
func (bs *BankSet) Bank(i int) *Bank { return bs.banks[i] }
func (bs *BankSet) Next(i int) int   { return (i + 1) % len(bs.banks) }

func (bs *BankSet) markAllUnready() {
	for _, b := range bs.banks {
		b.markUnready()
	}
}

// FillResult describes one FillBank call.
type FillResult struct {
	Filled int
	// Wraps counts seeks back to the start of the source.
	Wraps int
	// Empty is set when a wrap produced no bytes at all.
	Empty bool
}

// FillBank refills b from src until the bank is full or the source is
// exhausted. When loop is set an exhausted source is rewound and reading
// continues, so a bank may span the loop point. The bank is marked ready
// even when a read fails; the error is returned with whatever was read.
func FillBank(b *Bank, src audio.Source, loop bool) (FillResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var res FillResult
	var rerr error

	b.filled = 0
	wrapped := false

	for b.filled < len(b.data) {
		n, err := src.Read(b.data[b.filled:])
		b.filled += n
		if n > 0 {
			wrapped = false
		}

		if err != nil && !errors.Is(err, io.EOF) {
			rerr = fmt.Errorf("%w", err)
			break
		}
		if n > 0 {
			continue
		}

		if !loop || wrapped {
			res.Empty = wrapped
			break
		}
		if err := src.SeekToStart(); err != nil {
			rerr = fmt.Errorf("%w", err)
			break
		}
		wrapped = true
		res.Wraps++
	}

	b.ready = true
	res.Filled = b.filled

	return res, rerr
}

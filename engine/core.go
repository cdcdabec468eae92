// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ik5/audstream/audio"
)

const (
	DefaultLowWater     = 1
	DefaultPollInterval = 5 * time.Millisecond
)

// CoreOptions tunes when a voice asks for more data.
type CoreOptions struct {
	// LowWater is the pending buffer count at or below which the callback
	// is woken after a buffer is consumed. Zero means DefaultLowWater.
	LowWater int
	// PollInterval is how often a starved, playing voice calls back even
	// without consuming anything.
	PollInterval time.Duration
	Logger       *zerolog.Logger
}

func (o CoreOptions) withDefaults() CoreOptions {
	if o.LowWater <= 0 {
		o.LowWater = DefaultLowWater
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
	return o
}

// Core is the backend independent part of a voice: the buffer queue, the
// transport state, the volume and the dispatcher goroutine that runs the
// BufferNeededFunc. Backends embed it and pull bytes with Read from their
// device thread.
type Core struct {
	format audio.Format
	fn     BufferNeededFunc
	opts   CoreOptions
	log    zerolog.Logger

	mu    sync.Mutex
	queue [][]byte
	head  int

	state  atomic.Int32
	volume atomic.Uint32
	closed atomic.Bool

	need      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func NewCore(f audio.Format, fn BufferNeededFunc, opts CoreOptions) (*Core, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	if fn == nil {
		return nil, fmt.Errorf("%w: nil buffer callback", audio.ErrInvalidArgument)
	}

	opts = opts.withDefaults()
	c := &Core{
		format: f,
		fn:     fn,
		opts:   opts,
		log:    opts.Logger.With().Str("voice", f.String()).Logger(),
		need:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	c.volume.Store(math.Float32bits(1))

	return c, nil
}

// Start launches the dispatcher. self is the Voice handed to the callback,
// normally the backend type that embeds c.
func (c *Core) Start(self Voice) {
	go c.dispatch(self)
}

func (c *Core) dispatch(self Voice) {
	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-c.need:
		case <-ticker.C:
			if c.State() != Playing || c.PendingBufferCount() > c.opts.LowWater {
				continue
			}
		}

		select {
		case <-c.done:
			return
		default:
		}

		c.fn(self)
	}
}

func (c *Core) wake() {
	select {
	case c.need <- struct{}{}:
	default:
	}
}

func (c *Core) Play() {
	if c.closed.Load() {
		return
	}
	c.state.Store(int32(Playing))
	c.wake()
}

// Stop halts playback and drops every queued buffer.
func (c *Core) Stop() {
	c.state.Store(int32(Stopped))
	c.clear()
}

func (c *Core) Pause() {
	c.state.CompareAndSwap(int32(Playing), int32(Paused))
}

func (c *Core) Resume() {
	if c.state.CompareAndSwap(int32(Paused), int32(Playing)) {
		c.wake()
	}
}

// SetVolume clamps v to [0, 1].
func (c *Core) SetVolume(v float32) {
	if math.IsNaN(float64(v)) {
		return
	}
	c.volume.Store(math.Float32bits(min(max(v, 0), 1)))
}

func (c *Core) Volume() float32      { return math.Float32frombits(c.volume.Load()) }
func (c *Core) State() State         { return State(c.state.Load()) }
func (c *Core) Format() audio.Format { return c.format }

func (c *Core) PendingBufferCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.queue)
}

// SubmitBuffer queues a copy of p, which must hold whole frames.
func (c *Core) SubmitBuffer(p []byte) error {
	if c.closed.Load() {
		return ErrVoiceClosed
	}
	if len(p) == 0 {
		return nil
	}
	if len(p)%c.format.BlockAlign() != 0 {
		return fmt.Errorf("%w: %d bytes is not a whole number of frames", audio.ErrInvalidArgument, len(p))
	}

	buf := make([]byte, len(p))
	copy(buf, p)

	c.mu.Lock()
	c.queue = append(c.queue, buf)
	c.mu.Unlock()

	return nil
}

// Read moves up to len(p) queued bytes into p while the voice is playing
// and returns how many were copied. It never blocks and never pads, so the
// device side decides what a short read sounds like.
func (c *Core) Read(p []byte) int {
	if c.State() != Playing {
		return 0
	}

	c.mu.Lock()
	n := 0
	consumed := false
	for n < len(p) && len(c.queue) > 0 {
		buf := c.queue[0]
		k := copy(p[n:], buf[c.head:])
		n += k
		c.head += k
		if c.head == len(buf) {
			c.queue[0] = nil
			c.queue = c.queue[1:]
			c.head = 0
			consumed = true
		}
	}
	pending := len(c.queue)
	c.mu.Unlock()

	if consumed && pending <= c.opts.LowWater {
		c.wake()
	}

	return n
}

func (c *Core) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.queue)
	c.queue = c.queue[:0]
	c.head = 0
}

// Done is closed once the voice is closed.
func (c *Core) Done() <-chan struct{} { return c.done }

// Close stops the dispatcher without waiting for a callback in flight.
func (c *Core) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.state.Store(int32(Stopped))
		close(c.done)
		c.clear()
		c.log.Debug().Msg("voice closed")
	})
	return nil
}

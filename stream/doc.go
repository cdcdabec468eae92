// SPDX-License-Identifier: EPL-2.0

// Package stream plays audio sources through an engine voice without
// loading them into memory.
//
// An Instance keeps a ring of banks filled from its source. The voice
// callback hands whole chunks of the current bank to the voice; once a
// bank is drained it is released to a loader goroutine that refills it
// while the next bank plays:
//
//	inst, err := stream.New(eng, src, stream.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer inst.Close()
//
//	inst.Play(true) // loop
//
// The loader and the callback meet only at a bank's mutex and its ready
// flag. A bank that is not ready when the callback reaches it is an
// underrun; the callback returns and tries again on the next request.
//
// Looping rewinds the source inside FillBank, so a bank can hold the tail
// of the file followed by its head and the loop point is seamless.
//
// SoundEffect is the in-memory counterpart for short sounds that may
// overlap.
package stream

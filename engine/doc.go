// SPDX-License-Identifier: EPL-2.0

// Package engine defines the voice abstraction streamed instances submit
// PCM to, and the shared Core every backend builds on.
//
// # Voices
//
// A Voice plays a queue of PCM buffers at a fixed Format. Producers submit
// buffers from the BufferNeededFunc given to NewVoice. The callback runs on
// a dispatcher goroutine owned by the voice: it fires on Play and Resume,
// whenever the queue drops to the low-water mark, and on a short poll while
// the voice is playing but starved.
//
//	v, err := eng.NewVoice(format, func(v engine.Voice) {
//	    for v.PendingBufferCount() < 4 {
//	        _ = v.SubmitBuffer(next())
//	    }
//	})
//	v.Play()
//
// # Backends
//
// Capture writes the PCM of playing voices to an io.Writer, either as fast
// as it is produced or paced to real time. The otoengine and beepengine
// subpackages play through a sound device.
package engine

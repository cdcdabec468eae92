// SPDX-License-Identifier: EPL-2.0

// Package processor manages the sounds of an application by category.
//
// Music, SFX and Voice each have a volume that is multiplied by a master
// volume. Changing either re-applies the product to every live instance:
//
//	p, _ := processor.New(eng, audstream.NewRegistry(), stream.DefaultConfig())
//	p.AddMusic("theme", "music/theme.ogg", true)
//	p.SetMusicVolume(0.6)
//	p.SetMasterVolume(0.5) // theme now plays at 0.3
package processor

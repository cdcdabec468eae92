// SPDX-License-Identifier: EPL-2.0

package processor

// Category groups sounds that share a volume control.
type Category int

const (
	Music Category = iota
	SFX
	Voice

	numCategories
)

func (c Category) String() string {
	switch c {
	case Music:
		return "music"
	case SFX:
		return "sfx"
	case Voice:
		return "voice"
	default:
		return "unknown"
	}
}

func (c Category) valid() bool { return c >= Music && c < numCategories }

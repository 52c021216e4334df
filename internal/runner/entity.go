// Package runner implements the arcade segment of a session: a three-lane
// track where hazards and collectibles fall toward the player's craft.
package runner

import "github.com/vovakirdan/space-runner/internal/core"

// Lanes is the fixed number of lanes on the track.
const Lanes = 3

// Kind is the gameplay variant of an entity.
type Kind int

const (
	Hazard      Kind = iota // Ends the segment on contact
	Collectible             // Grants Value points on contact
)

func (k Kind) String() string {
	if k == Hazard {
		return "hazard"
	}
	return "collectible"
}

// Skin is purely cosmetic; gameplay never branches on it.
type Skin int

const (
	SkinAlien Skin = iota
	SkinStar
	SkinShip
)

// Glyph returns the rune and colour used to draw the skin.
func (s Skin) Glyph() (rune, core.Color) {
	switch s {
	case SkinAlien:
		return '▓', core.ColorRed
	case SkinShip:
		return '♦', core.ColorCyan
	default:
		return '*', core.ColorBrightMagenta
	}
}

// Entity is a moving object on the track.
type Entity struct {
	Kind     Kind
	Skin     Skin
	Lane     int     // 0..Lanes-1
	Position float64 // Distance travelled along the track
	Value    int     // Points for collectibles, 0 for hazards
}

// Player is the craft steered by the operator.
// Lane is authoritative; RenderX only eases toward the lane centre for drawing.
type Player struct {
	Lane    int
	RenderX float64 // In lane units, lane centre = Lane + 0.5
}

// Intent is the operator's steering request for a tick.
type Intent int

const (
	IntentNone Intent = iota
	IntentLeft
	IntentRight
)

// Steer applies an intent to a lane, clamped to the track.
func Steer(lane int, in Intent) int {
	switch in {
	case IntentLeft:
		lane--
	case IntentRight:
		lane++
	}
	return core.Clamp(lane, 0, Lanes-1)
}

func laneCentre(lane int) float64 {
	return float64(lane) + 0.5
}

package vision

import (
	"github.com/codebuildervaibhav/presentation-analysis/internal/types"
)

// Blendshapes maps MediaPipe blendshape category names to scores for
// one detected face. Missing categories read as 0.
type Blendshapes map[string]float64

func (b Blendshapes) pick(name string) float64 {
	return b[name]
}

// DeriveSignals reduces the raw blendshape vocabulary to the handful
// of presentation-relevant signals the rest of the system consumes.
// The combinations mirror the MediaPipe face landmarker contract:
// gaze is the left/right eye deltas averaged, smile/frown/squint are
// left/right means, brow_up mixes the inner and both outer raises.
func DeriveSignals(b Blendshapes) *types.VisionSignals {
	gazeH := ((b.pick("eyeLookOutLeft") - b.pick("eyeLookInLeft")) +
		(b.pick("eyeLookInRight") - b.pick("eyeLookOutRight"))) / 2
	gazeV := ((b.pick("eyeLookUpLeft") - b.pick("eyeLookDownLeft")) +
		(b.pick("eyeLookUpRight") - b.pick("eyeLookDownRight"))) / 2

	return &types.VisionSignals{
		GazeH:     gazeH,
		GazeV:     gazeV,
		Smile:     (b.pick("mouthSmileLeft") + b.pick("mouthSmileRight")) / 2,
		Frown:     (b.pick("mouthFrownLeft") + b.pick("mouthFrownRight")) / 2,
		BrowUp:    (b.pick("browInnerUp") + b.pick("browOuterUpLeft") + b.pick("browOuterUpRight")) / 3,
		BrowDown:  (b.pick("browDownLeft") + b.pick("browDownRight")) / 2,
		JawOpen:   b.pick("jawOpen"),
		MouthOpen: b.pick("mouthOpen"),
		Squint:    (b.pick("eyeSquintLeft") + b.pick("eyeSquintRight")) / 2,
	}
}

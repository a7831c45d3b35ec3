// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Normalized trial phase labels. Every registry adapter maps its own
// vocabulary ("PHASE2", "II", "Phase 2/ Phase 3", "Therapeutic confirmatory
// (Phase III)") onto exactly one of these.
const (
	PhaseEarly1   = "Early Phase I"
	Phase1        = "Phase I"
	Phase1to2     = "Phase I/II"
	Phase2        = "Phase II"
	Phase2to3     = "Phase II/III"
	Phase3        = "Phase III"
	Phase4        = "Phase IV"
	PhaseUnstated = ""
)

// HighestPhase returns the highest numeric phase a label covers (1-4), or 0
// for unstated phases. "Phase II/III" counts as 3.
func HighestPhase(label string) int {
	switch label {
	case PhaseEarly1, Phase1:
		return 1
	case Phase1to2, Phase2:
		return 2
	case Phase2to3, Phase3:
		return 3
	case Phase4:
		return 4
	default:
		return 0
	}
}

// CoversPhase reports whether label includes numeric phase n, so a
// "Phase II/III" trial matches a search for phase 2 and phase 3.
func CoversPhase(label string, n int) bool {
	switch label {
	case PhaseEarly1, Phase1:
		return n == 1
	case Phase1to2:
		return n == 1 || n == 2
	case Phase2:
		return n == 2
	case Phase2to3:
		return n == 2 || n == 3
	case Phase3:
		return n == 3
	case Phase4:
		return n == 4
	default:
		return false
	}
}

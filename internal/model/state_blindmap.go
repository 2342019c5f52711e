package model

// BlindMapPhase is the question-local phase (spec §4.10). Phase only
// advances, never decreases (spec §8 invariant 4).
type BlindMapPhase int

const (
	BlindMapPhaseAnagram BlindMapPhase = iota
	BlindMapPhaseLocate
	BlindMapPhaseSecondTeam // team mode only: the other team's turn at Locate
	BlindMapPhaseDone
)

// BlindMapLocation is a submitted (x, y) guess.
type BlindMapLocation struct {
	PlayerName string
	X, Y       float64
}

// BlindMapState is the sub-state for a BLIND_MAP question.
type BlindMapState struct {
	Phase BlindMapPhase

	// Free-for-all
	SolveOrder []string // anagram solvers, in solved order
	Locations  map[string]BlindMapLocation

	// Team mode
	ActiveTeam     Team
	FirstSolverTeam Team // team that solved the anagram first
	CaptainLocation map[Team]*BlindMapLocation
	TeamsAttempted  map[Team]bool // which teams have had their Locate turn

	CluesRevealed int // 0..3, how many of Clue1/2/3 have been broadcast
}

// NewBlindMapState returns a zeroed sub-state.
func NewBlindMapState() *BlindMapState {
	return &BlindMapState{
		Phase:           BlindMapPhaseAnagram,
		Locations:       make(map[string]BlindMapLocation),
		CaptainLocation: make(map[Team]*BlindMapLocation),
		TeamsAttempted:  make(map[Team]bool),
	}
}

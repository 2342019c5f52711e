package model

// MathQuizState is the sub-state for a MATH_QUIZ question (spec §4.7,
// elimination across an ordered list of sequences).
type MathQuizState struct {
	CurrentSequence int

	EliminatedPlayers map[string]bool

	// PlayerAnswers[seq][player] = true once that player has answered
	// (correctly or not) for that sequence.
	PlayerAnswers map[int]map[string]bool

	// TeamsScored[seq] = set of teams that already scored this sequence.
	TeamsScored map[int]map[Team]bool

	// CorrectAnswers[seq][player] = the value that player submitted, only
	// ever set for correct answers (spec §4.7 results payload: "per-sequence
	// correct-only answers").
	CorrectAnswers map[int]map[string]float64

	SequenceStartMS map[int]int64

	// GamePoints is the per-game math-quiz point tally shown at results time.
	GamePoints map[string]int
}

// NewMathQuizState returns a zeroed sub-state with sequence 0 armed.
func NewMathQuizState(startMS int64) *MathQuizState {
	return &MathQuizState{
		CurrentSequence:   0,
		EliminatedPlayers: make(map[string]bool),
		PlayerAnswers:     map[int]map[string]bool{0: make(map[string]bool)},
		TeamsScored:       map[int]map[Team]bool{0: make(map[Team]bool)},
		CorrectAnswers:    map[int]map[string]float64{0: make(map[string]float64)},
		SequenceStartMS:   map[int]int64{0: startMS},
		GamePoints:        make(map[string]int),
	}
}

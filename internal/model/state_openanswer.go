package model

// OpenAnswerAttempt records one player's attempt at an OPEN_ANSWER question,
// used to render the sorted "interesting attempts" list (spec §4.5).
type OpenAnswerAttempt struct {
	PlayerName string
	Text       string
	IsCorrect  bool
	Similarity float64 // 0..1, 1 = identical; only meaningful when !IsCorrect
	PointsEarned int
}

// OpenAnswerState is the sub-state for an OPEN_ANSWER question.
type OpenAnswerState struct {
	CorrectPlayers    map[string]bool
	RevealedPositions map[int]bool
	Attempts          []OpenAnswerAttempt
	CorrectTeams      map[Team]bool // team mode: which teams already have a correct answer
}

// NewOpenAnswerState returns a zeroed sub-state.
func NewOpenAnswerState() *OpenAnswerState {
	return &OpenAnswerState{
		CorrectPlayers:    make(map[string]bool),
		RevealedPositions: make(map[int]bool),
		CorrectTeams:      make(map[Team]bool),
	}
}

package model

// DrawingGuess records one player's guess at the drawn word (spec §4.9).
type DrawingGuess struct {
	PlayerName   string
	IsCorrect    bool
	Similarity   float64
	PointsEarned int
}

// DrawingState is the sub-state for a DRAWING question.
type DrawingState struct {
	CorrectGuessers map[string]bool
	Attempts        []DrawingGuess
	RevealedPositions map[int]bool

	DrawerPointsEarned int
}

// NewDrawingState returns a zeroed sub-state.
func NewDrawingState() *DrawingState {
	return &DrawingState{
		CorrectGuessers:   make(map[string]bool),
		RevealedPositions: make(map[int]bool),
	}
}

// DrawingTurn is one scheduled drawing turn computed at game start (spec
// §4.9 round scheduling) before being materialized into a Question.
type DrawingTurn struct {
	Player string
	Team   Team
}

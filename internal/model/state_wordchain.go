package model

// WordChainEntry is one submitted word in the growing chain (spec §4.8).
type WordChainEntry struct {
	Word   string
	Player string
	Team   Team
}

// WordChainState is the sub-state for a WORD_CHAIN question.
type WordChainState struct {
	CurrentLetter string
	UsedWords     map[string]bool
	Chain         []WordChainEntry

	// Free-for-all
	PlayerOrder []string // rotation order, stable across consecutive word-chain questions

	// Team mode
	TeamOrder   []Team         // e.g. [blue, red], alternated every turn
	TeamIndexes map[Team]int   // rotating index within each team's roster
	BombArmedMS int64          // ms when the shared bomb timer was armed
	BombLengthMS int64         // shared bomb round length, picked once per session

	CurrentPlayer string

	EliminatedPlayers map[string]bool // free-for-all only

	PlayerTimersMS map[string]int64 // free-for-all: per-player elapsed turn time, for display

	PreviousPlayers []string // last up to 2 players, for lookahead display
	NextPlayers     []string // next up to 2 players, for lookahead display

	// GamePoints is the per-game word-letter point tally (free-for-all),
	// distinct from the persistent Player.Score it also feeds (spec §4.8,
	// §9: POINTS_FOR_WORD_CHAIN=50 is a display-only constant; the survival
	// path awards PointsForSurvivingBomb=200).
	GamePoints map[string]int
}

// NewWordChainState returns a zeroed sub-state.
func NewWordChainState() *WordChainState {
	return &WordChainState{
		UsedWords:         make(map[string]bool),
		TeamIndexes:       make(map[Team]int),
		EliminatedPlayers: make(map[string]bool),
		PlayerTimersMS:    make(map[string]int64),
		GamePoints:        make(map[string]int),
	}
}

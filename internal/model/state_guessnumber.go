package model

// GuessNumberPhase is the two-phase team-mode protocol step (spec §4.6).
type GuessNumberPhase int

const (
	GuessNumberPhaseGuess GuessNumberPhase = iota // phase 1: active team guesses, captain picks
	GuessNumberPhaseVote                          // phase 2: other team votes more/less
	GuessNumberPhaseDone
)

// MoreLessVote is a single player's more/less vote in Phase 2.
type MoreLessVote string

const (
	VoteMore MoreLessVote = "more"
	VoteLess MoreLessVote = "less"
)

// GuessNumberState is the sub-state for a GUESS_A_NUMBER question.
type GuessNumberState struct {
	// Free-for-all
	Guesses map[string]float64 // playerName -> guess

	// Team mode
	Phase        GuessNumberPhase
	TeamGuesses  map[string]float64 // playerName -> guess, phase 1 members of ActiveTeam
	CaptainFinal *float64           // captain's chosen final answer, phase 1
	Votes        map[string]MoreLessVote
}

// NewGuessNumberState returns a zeroed sub-state.
func NewGuessNumberState() *GuessNumberState {
	return &GuessNumberState{
		Guesses:     make(map[string]float64),
		TeamGuesses: make(map[string]float64),
		Votes:       make(map[string]MoreLessVote),
		Phase:       GuessNumberPhaseGuess,
	}
}

package handlers

import "github.com/balalek/partygame-server/internal/model"

// Hooks bundles the Initialize/TimeUp functions for every question type
// into the shape internal/session.Flow.TypeHooks expects, keeping the
// per-type switch in one place (spec §9: "handlers share a small common
// interface").
type Hooks struct {
	WordChain *WordChain
}

// Initialize dispatches to the current question's type-specific sub-state
// setup (spec §4.3 next_question's "initializes MATH_QUIZ or BLIND_MAP
// sub-state" etc).
func (h *Hooks) Initialize(s *model.Session) {
	switch s.CurrentQuestion().Type {
	case model.TypeOpenAnswer:
		InitOpenAnswer(s)
	case model.TypeGuessANumber:
		InitGuessNumber(s)
	case model.TypeMathQuiz:
		InitMathQuiz(s)
	case model.TypeWordChain:
		h.WordChain.Init(s)
	case model.TypeDrawing:
		InitDrawing(s)
	case model.TypeBlindMap:
		InitBlindMap(s)
	}
}

// TimeUp dispatches to the current type's time-up handler, flushing the
// resulting Outbox through b (spec §4.3 time_up, §4.4-§4.10's per-type
// time_up() contracts).
func (h *Hooks) TimeUp(s *model.Session, out *Outbox) {
	switch s.CurrentQuestion().Type {
	case model.TypeABCD, model.TypeTrueFalse:
		ABCDTimeUp(s, out)
	case model.TypeOpenAnswer:
		OpenAnswerTimeUp(s, out)
	case model.TypeGuessANumber:
		GuessNumberTimeUp(s, out)
	case model.TypeMathQuiz:
		MathQuizTimeUp(s, out)
	case model.TypeWordChain:
		h.WordChain.TimeUp(s, out)
	case model.TypeDrawing:
		DrawingTimeUp(s, out)
	case model.TypeBlindMap:
		BlindMapTimeUp(s, out)
	}
}

// Package loader expands a stored quiz (internal/quizstore) into the
// ordered, fully-materialized question list a game actually plays (spec
// §4.3's question loader, §2 "expands a quiz definition ... including
// dynamic drawing and word-chain turn schedules and random seed words").
// Grounded on the teacher's internal/game/room.go turn-index bookkeeping,
// generalized from skribblr's single implicit drawing round into the
// eight-type polymorphic expansion spec §3 requires.
package loader

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/balalek/partygame-server/internal/model"
	"github.com/balalek/partygame-server/internal/quizstore"
	"github.com/balalek/partygame-server/internal/wordprovider"
)

// abcdPayload is the JSON shape stored for ABCD/TRUE_FALSE rows.
type abcdPayload struct {
	Category string   `json:"category"`
	LengthMS int64    `json:"length_ms"`
	Options  []string `json:"options"`
	Answer   int      `json:"answer"`
}

type openAnswerPayload struct {
	Category       string `json:"category"`
	LengthMS       int64  `json:"length_ms"`
	OpenAnswerText string `json:"open_answer_text"`
	MediaURL       string `json:"media_url"`
}

type guessNumberPayload struct {
	Category     string  `json:"category"`
	LengthMS     int64   `json:"length_ms"`
	NumberAnswer float64 `json:"number_answer"`
}

type mathQuizPayload struct {
	Category  string `json:"category"`
	Sequences []struct {
		Equation string  `json:"equation"`
		Answer   float64 `json:"answer"`
		LengthMS int64   `json:"length_ms"`
	} `json:"sequences"`
}

type wordChainPayload struct {
	Category     string `json:"category"`
	TurnLengthMS int64  `json:"turn_length_ms"`
}

type drawingPayload struct {
	Category string `json:"category"`
	Rounds   int    `json:"rounds"`
	LengthMS int64  `json:"length_ms"`
}

type blindMapPayload struct {
	Category     string             `json:"category"`
	LengthMS     int64              `json:"length_ms"`
	CityName     string             `json:"city_name"`
	Anagram      string             `json:"anagram"`
	LocationX    float64            `json:"location_x"`
	LocationY    float64            `json:"location_y"`
	MapType      string             `json:"map_type"`
	RadiusPreset model.RadiusPreset `json:"radius_preset"`
	Clue1        string             `json:"clue1"`
	Clue2        string             `json:"clue2"`
	Clue3        string             `json:"clue3"`
}

// Roster describes the players and teams the loader needs to expand
// per-turn question types (DRAWING, WORD_CHAIN) at game start.
type Roster struct {
	IsTeamMode bool
	BlueTeam   []string
	RedTeam    []string
	Players    []string // free-for-all order
}

// Load expands quiz into the ordered, fully materialized question list
// for one game (spec §4.3 start_game precondition: random-word fetch and
// quiz read must both complete before the game goes live).
func Load(ctx context.Context, quiz quizstore.Quiz, roster Roster, words wordprovider.Provider) ([]*model.Question, error) {
	var out []*model.Question

	for i, row := range quiz.Questions {
		switch model.QuestionType(row.Type) {
		case model.TypeABCD, model.TypeTrueFalse:
			var p abcdPayload
			if err := json.Unmarshal(row.Payload, &p); err != nil {
				return nil, fmt.Errorf("loader: question %d (%s): %w", i, row.Type, err)
			}
			out = append(out, &model.Question{
				Type:     model.QuestionType(row.Type),
				Category: p.Category,
				LengthMS: p.LengthMS,
				Options:  p.Options,
				Answer:   p.Answer,
			})

		case model.TypeOpenAnswer:
			var p openAnswerPayload
			if err := json.Unmarshal(row.Payload, &p); err != nil {
				return nil, fmt.Errorf("loader: question %d (OPEN_ANSWER): %w", i, err)
			}
			out = append(out, &model.Question{
				Type:           model.TypeOpenAnswer,
				Category:       p.Category,
				LengthMS:       p.LengthMS,
				OpenAnswerText: p.OpenAnswerText,
				MediaURL:       p.MediaURL,
			})

		case model.TypeGuessANumber:
			var p guessNumberPayload
			if err := json.Unmarshal(row.Payload, &p); err != nil {
				return nil, fmt.Errorf("loader: question %d (GUESS_A_NUMBER): %w", i, err)
			}
			out = append(out, &model.Question{
				Type:         model.TypeGuessANumber,
				Category:     p.Category,
				LengthMS:     p.LengthMS,
				NumberAnswer: p.NumberAnswer,
			})

		case model.TypeMathQuiz:
			var p mathQuizPayload
			if err := json.Unmarshal(row.Payload, &p); err != nil {
				return nil, fmt.Errorf("loader: question %d (MATH_QUIZ): %w", i, err)
			}
			seqs := make([]model.MathSequence, len(p.Sequences))
			for j, s := range p.Sequences {
				seqs[j] = model.MathSequence{Equation: s.Equation, Answer: s.Answer, LengthMS: s.LengthMS}
			}
			out = append(out, &model.Question{
				Type:      model.TypeMathQuiz,
				Category:  p.Category,
				Sequences: seqs,
			})

		case model.TypeWordChain:
			var p wordChainPayload
			if err := json.Unmarshal(row.Payload, &p); err != nil {
				return nil, fmt.Errorf("loader: question %d (WORD_CHAIN): %w", i, err)
			}
			q, err := expandWordChain(ctx, p, words)
			if err != nil {
				return nil, fmt.Errorf("loader: question %d (WORD_CHAIN): %w", i, err)
			}
			out = append(out, q)

		case model.TypeDrawing:
			var p drawingPayload
			if err := json.Unmarshal(row.Payload, &p); err != nil {
				return nil, fmt.Errorf("loader: question %d (DRAWING): %w", i, err)
			}
			turns, err := expandDrawingTurns(ctx, p, roster, words)
			if err != nil {
				return nil, fmt.Errorf("loader: question %d (DRAWING): %w", i, err)
			}
			out = append(out, turns...)

		case model.TypeBlindMap:
			var p blindMapPayload
			if err := json.Unmarshal(row.Payload, &p); err != nil {
				return nil, fmt.Errorf("loader: question %d (BLIND_MAP): %w", i, err)
			}
			out = append(out, &model.Question{
				Type:         model.TypeBlindMap,
				Category:     p.Category,
				LengthMS:     p.LengthMS,
				CityName:     p.CityName,
				Anagram:      p.Anagram,
				LocationX:    p.LocationX,
				LocationY:    p.LocationY,
				MapType:      p.MapType,
				RadiusPreset: p.RadiusPreset,
				Clue1:        p.Clue1,
				Clue2:        p.Clue2,
				Clue3:        p.Clue3,
			})

		default:
			return nil, fmt.Errorf("loader: question %d: unknown type %q", i, row.Type)
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("loader: quiz %s expanded to zero questions", quiz.ID)
	}
	return out, nil
}

// expandWordChain fetches one random seed word (spec §9: random-word
// fetch must occur during start_game; failure aborts start) and derives
// the first letter from it.
func expandWordChain(ctx context.Context, p wordChainPayload, words wordprovider.Provider) (*model.Question, error) {
	fetched, err := words.FetchWords(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("fetch seed word: %w", err)
	}
	first := fetched[0]
	letter := ""
	if r := []rune(first); len(r) > 0 {
		letter = string(r[len(r)-1])
	}
	return &model.Question{
		Type:         model.TypeWordChain,
		Category:     p.Category,
		FirstWord:    first,
		FirstLetter:  letter,
		TurnLengthMS: p.TurnLengthMS,
	}, nil
}

// expandDrawingTurns materializes the per-round turn schedule spec §4.9
// describes: free-for-all gives every player exactly one turn per round;
// team mode alternates red/blue with a rotating starting team so coverage
// spreads across rounds, for `2 * max(|red|,|blue|)` turns per round.
func expandDrawingTurns(ctx context.Context, p drawingPayload, roster Roster, words wordprovider.Provider) ([]*model.Question, error) {
	rounds := p.Rounds
	if rounds <= 0 {
		rounds = 1
	}

	var turns []model.DrawingTurn
	if roster.IsTeamMode {
		turnsPerRound := 2 * maxInt(len(roster.BlueTeam), len(roster.RedTeam))
		for round := 0; round < rounds; round++ {
			startTeam := model.TeamBlue
			if len(roster.RedTeam) < len(roster.BlueTeam) {
				startTeam = model.TeamRed
			}
			if round%2 == 1 {
				startTeam = startTeam.Opponent()
			}
			current := startTeam
			blueIdx, redIdx := 0, 0
			for t := 0; t < turnsPerRound; t++ {
				if current == model.TeamBlue && len(roster.BlueTeam) > 0 {
					turns = append(turns, model.DrawingTurn{Player: roster.BlueTeam[blueIdx%len(roster.BlueTeam)], Team: model.TeamBlue})
					blueIdx++
				} else if current == model.TeamRed && len(roster.RedTeam) > 0 {
					turns = append(turns, model.DrawingTurn{Player: roster.RedTeam[redIdx%len(roster.RedTeam)], Team: model.TeamRed})
					redIdx++
				}
				current = current.Opponent()
			}
		}
	} else {
		for round := 0; round < rounds; round++ {
			for _, name := range roster.Players {
				turns = append(turns, model.DrawingTurn{Player: name})
			}
		}
	}

	wordsNeeded := len(turns) * 3
	pool, err := words.FetchWords(ctx, wordsNeeded)
	if err != nil {
		return nil, fmt.Errorf("fetch drawing words: %w", err)
	}

	out := make([]*model.Question, len(turns))
	for i, turn := range turns {
		choices := distinctTriple(pool, i*3)
		out[i] = &model.Question{
			Type:          model.TypeDrawing,
			Category:      "Kreslení",
			LengthMS:      p.LengthMS,
			DrawingPlayer: turn.Player,
			DrawingTeam:   turn.Team,
			WordChoices:   choices,
		}
	}
	return out, nil
}

func distinctTriple(pool []string, offset int) []string {
	if offset+3 <= len(pool) {
		return append([]string(nil), pool[offset:offset+3]...)
	}
	// Defensive fallback: pool came back short of what was requested.
	// Cycle through what we have rather than index out of range.
	out := make([]string, 3)
	for i := 0; i < 3; i++ {
		out[i] = pool[(offset+i)%len(pool)]
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

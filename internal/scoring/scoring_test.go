package scoring

import "testing"

func TestSpeedBonus(t *testing.T) {
	cases := []struct {
		name               string
		base               int
		elapsedMS, lengthMS int64
		want               int
	}{
		{"instant answer gets full base", 100, 0, 10000, 100},
		{"answer at the wire gets zero", 100, 10000, 10000, 0},
		{"halfway decays to half", 100, 5000, 10000, 50},
		{"zero length never divides by zero", 100, 0, 0, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := SpeedBonus(c.base, c.elapsedMS, c.lengthMS); got != c.want {
				t.Errorf("SpeedBonus(%d, %d, %d) = %d, want %d", c.base, c.elapsedMS, c.lengthMS, got, c.want)
			}
		})
	}
}

func TestClampElapsed(t *testing.T) {
	if got := ClampElapsed(-500, 10000); got != 0 {
		t.Errorf("negative elapsed should clamp to 0, got %d", got)
	}
	if got := ClampElapsed(20000, 10000); got != 10000 {
		t.Errorf("over-length elapsed should clamp to lengthMS, got %d", got)
	}
	if got := ClampElapsed(4000, 10000); got != 4000 {
		t.Errorf("in-range elapsed should pass through, got %d", got)
	}
}

func TestMathQuizPoints(t *testing.T) {
	if got := MathQuizPoints(0, 10000); got != 75 {
		t.Errorf("instant answer should score 75, got %d", got)
	}
	if got := MathQuizPoints(10000, 10000); got != 38 {
		t.Errorf("full-length answer should score 38 (rounded half), got %d", got)
	}
}

func TestPlacement(t *testing.T) {
	if got := Placement(1, 4); got != 100 {
		t.Errorf("first placement of 4 should be 100, got %d", got)
	}
	if got := Placement(4, 4); got != 25 {
		t.Errorf("last placement of 4 should be 25, got %d", got)
	}
	if got := Placement(1, 0); got != 10 {
		t.Errorf("placement with n=0 should floor to 10, got %d", got)
	}
}

func TestAccuracyBonus(t *testing.T) {
	if got := AccuracyBonus(50, 50); got != 200 {
		t.Errorf("exact guess should score 200, got %d", got)
	}
	if got := AccuracyBonus(1000, 50); got != 0 {
		t.Errorf("wildly off guess should score 0, got %d", got)
	}
}

func TestAnagramPoints(t *testing.T) {
	if got := AnagramPoints(1, 4); got != 100 {
		t.Errorf("first solver of 4 should score 100, got %d", got)
	}
	if got := AnagramPoints(4, 4); got != 25 {
		t.Errorf("last solver of 4 should score 25, got %d", got)
	}
}

func TestWithinExactRadius(t *testing.T) {
	if !WithinExactRadius(0.02, 0.045) {
		t.Error("distance under radius should be within")
	}
	if WithinExactRadius(0.1, 0.045) {
		t.Error("distance over radius should not be within")
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name, guess, answer string
		want                Feedback
	}{
		{"exact match is almost or better", "prague", "prague", FeedbackAlmost},
		{"far too short", "p", "prague", FeedbackTooShort},
		{"far too long", "praguepragueprague", "prague", FeedbackTooLong},
		{"close typo", "pragoe", "prague", FeedbackAlmost},
		{"unrelated word is wrong", "xyzxyz", "prague", FeedbackWrong},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Classify(c.guess, c.answer); got != c.want {
				t.Errorf("Classify(%q, %q) = %q, want %q", c.guess, c.answer, got, c.want)
			}
		})
	}
}

func TestSimilarity_IdenticalIsOne(t *testing.T) {
	if got := Similarity("praha", "praha"); got != 1 {
		t.Errorf("identical strings should have similarity 1, got %v", got)
	}
}

func TestSimilarity_DisjointIsZero(t *testing.T) {
	if got := Similarity("abc", "xyz"); got != 0 {
		t.Errorf("disjoint strings should have similarity 0, got %v", got)
	}
}

func TestWordLetterPoints(t *testing.T) {
	if got := WordLetterPoints("kočka"); got != 15 {
		t.Errorf("5-letter word should score 15 (3 per letter), got %d", got)
	}
}

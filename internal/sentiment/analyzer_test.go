package sentiment

import (
	"errors"
	"math"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestScoreFedRateCut(t *testing.T) {
	a := NewAnalyzer()
	r, err := a.Score("Fed Signals Rate Cut. The fed is weighing a rate cut")
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}

	// base: mean(-0.3, -0.3) damped by hedging = -0.24; keyword pass: 2 negatives
	if !approx(r.Polarity, -0.44) {
		t.Errorf("Expected polarity -0.44, got %v", r.Polarity)
	}
	if r.NegativeCount != 2 {
		t.Errorf("Expected 2 negative terms, got %d", r.NegativeCount)
	}
	if r.MarketMovingCount != 6 {
		t.Errorf("Expected 6 market-moving terms, got %d", r.MarketMovingCount)
	}
	if r.Magnitude != 1.0 {
		t.Errorf("Expected magnitude 1.0, got %v", r.Magnitude)
	}
	if r.Label() != "negative" {
		t.Errorf("Expected negative label, got %s", r.Label())
	}
}

func TestScorePositive(t *testing.T) {
	r, err := NewAnalyzer().Score("Bitcoin surges as strong growth drives a record rally")
	if err != nil {
		t.Fatal(err)
	}
	if r.Polarity <= 0.1 {
		t.Errorf("Expected clearly positive polarity, got %v", r.Polarity)
	}
	if r.PositiveCount != 5 {
		t.Errorf("Expected 5 positive terms, got %d", r.PositiveCount)
	}
	if r.Magnitude != 0.3 {
		t.Errorf("Expected base magnitude 0.3, got %v", r.Magnitude)
	}
}

func TestScoreDeterministic(t *testing.T) {
	a := NewAnalyzer()
	text := "Oil prices drop sharply amid concerns over a slowing economy"
	first, _ := a.Score(text)
	for i := 0; i < 20; i++ {
		next, _ := a.Score(text)
		if next != first {
			t.Fatalf("Expected identical results, got %+v and %+v", first, next)
		}
	}
}

func TestScoreBounds(t *testing.T) {
	a := NewAnalyzer()
	texts := []string{
		"crash crash crash fraud scandal plunge default loss loss loss miss miss",
		"surge surge surge rally rally record record beat beat growth growth strong",
		"fed fed fed rate rate policy merger acquisition announcement",
		"nothing to see here",
	}
	for _, text := range texts {
		r, err := a.Score(text)
		if err != nil {
			t.Fatalf("Score(%q) failed: %v", text, err)
		}
		if r.Polarity < -1 || r.Polarity > 1 {
			t.Errorf("Polarity out of range for %q: %v", text, r.Polarity)
		}
		if r.Magnitude < 0 || r.Magnitude > 1 {
			t.Errorf("Magnitude out of range for %q: %v", text, r.Magnitude)
		}
		if r.Subjectivity < 0 || r.Subjectivity > 1 {
			t.Errorf("Subjectivity out of range for %q: %v", text, r.Subjectivity)
		}
	}
}

func TestScoreIntensifier(t *testing.T) {
	a := NewAnalyzer()
	plain, _ := a.Score("shares fell")
	intense, _ := a.Score("shares sharply fell")

	if intense.Polarity >= plain.Polarity {
		t.Errorf("Expected intensifier to deepen polarity: plain %v, intense %v", plain.Polarity, intense.Polarity)
	}
}

func TestScoreErrors(t *testing.T) {
	a := NewAnalyzer()
	for _, text := range []string{"", "   ", "\xff\xfe", "!!! ---"} {
		if _, err := a.Score(text); !errors.Is(err, ErrAnalysis) {
			t.Errorf("Expected ErrAnalysis for %q, got %v", text, err)
		}
	}
}

func TestKeywordOnly(t *testing.T) {
	r := NewAnalyzer().KeywordOnly("Fed rate cut \xff announcement")

	if !approx(r.Polarity, -0.1) {
		t.Errorf("Expected polarity -0.1, got %v", r.Polarity)
	}
	if r.Magnitude != 1.0 {
		t.Errorf("Expected magnitude 1.0 with 4 movers, got %v", r.Magnitude)
	}
}

func TestMatchesTerm(t *testing.T) {
	tests := []struct {
		token, term string
		want        bool
	}{
		{"rates", "rate", true},
		{"missed", "miss", true},
		{"mission", "miss", false},
		{"federal", "fed", false},
		{"cuts", "cut", true},
		{"cute", "cut", false},
		{"dropped", "drop", true},
		{"dropping", "drop", true},
		{"cutting", "cut", true},
		{"rising", "rise", true},
		{"surging", "surge", true},
		{"declining", "decline", true},
		{"rallies", "rally", true},
		{"losses", "loss", true},
		{"raised", "raise", true},
		{"rate", "rat", false},
	}
	for _, tt := range tests {
		if got := matchesTerm(tt.token, tt.term); got != tt.want {
			t.Errorf("matchesTerm(%q, %q) = %v, want %v", tt.token, tt.term, got, tt.want)
		}
	}
}

func TestScoreInflectedForms(t *testing.T) {
	a := NewAnalyzer()
	tests := []struct {
		name      string
		text      string
		label     string
		positive  int
		negative  int
		marketMov int
	}{
		{"doubled consonant past and progressive", "Stocks dropped as oil prices kept dropping", "negative", 0, 2, 0},
		{"doubled consonant with movers", "Central bank is cutting rates", "negative", 0, 1, 2},
		{"dropped final e", "Shares rising and surging after results", "positive", 2, 0, 0},
		{"intensified e-drop", "Sales declining sharply", "negative", 0, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := a.Score(tt.text)
			if err != nil {
				t.Fatal(err)
			}
			if r.Label() != tt.label {
				t.Errorf("Expected %s, got %s (polarity %v)", tt.label, r.Label(), r.Polarity)
			}
			if r.PositiveCount != tt.positive || r.NegativeCount != tt.negative {
				t.Errorf("Expected %d/%d positive/negative, got %d/%d",
					tt.positive, tt.negative, r.PositiveCount, r.NegativeCount)
			}
			if r.MarketMovingCount != tt.marketMov {
				t.Errorf("Expected %d market-moving terms, got %d", tt.marketMov, r.MarketMovingCount)
			}
		})
	}
}

func TestWeightOfInflected(t *testing.T) {
	if w, ok := weightOf("declining", bearishWeights); !ok || w != 0.5 {
		t.Errorf("Expected decline weight 0.5, got %v (found %v)", w, ok)
	}
	if w, ok := weightOf("surging", bullishWeights); !ok || w != 0.7 {
		t.Errorf("Expected surge weight 0.7, got %v (found %v)", w, ok)
	}
	if _, ok := weightOf("results", bullishWeights); ok {
		t.Error("Expected no weight for an unrelated token")
	}
}

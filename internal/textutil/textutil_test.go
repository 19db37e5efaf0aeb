package textutil

import "testing"

func TestTokenize(t *testing.T) {
	got := Tokenize("Fed's rate-cut: +25bps, U.S. markets RALLY!")
	want := []string{"fed", "s", "rate", "cut", "25bps", "u", "s", "markets", "rally"}

	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Token %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestDocWholeWordMatching(t *testing.T) {
	d := NewDoc("Officials said the AI rally could cut interest rates; the cut is near.")

	if d.Has("aid") {
		t.Error("Expected no partial-word match for 'aid'")
	}
	if !d.Has("ai") {
		t.Error("Expected match for 'ai'")
	}
	if !d.Has("cut") || !d.Has("Interest-Rates") {
		t.Error("Expected case and punctuation to be ignored")
	}
	if !d.Has("interest rates") {
		t.Error("Expected phrase match for 'interest rates'")
	}
	if d.Has("interest rate") {
		t.Error("Expected phrase 'interest rate' not to match 'interest rates'")
	}
}

func TestMatching(t *testing.T) {
	d := NewDoc("Bitcoin and Ethereum surge")
	got := d.Matching([]string{"ethereum", "solana", "bitcoin"})

	if len(got) != 2 || got[0] != "ethereum" || got[1] != "bitcoin" {
		t.Errorf("Unexpected matches: %v", got)
	}
	if !d.HasAny([]string{"solana", "surge"}) {
		t.Error("Expected HasAny to find surge")
	}
}

func TestDocAdjacentRepeats(t *testing.T) {
	d := NewDoc("rate rate cut")

	if !d.Has("rate") || !d.Has("rate cut") || !d.Has("rate rate") {
		t.Error("Expected repeated tokens to match")
	}
	if d.Has("") || d.Has("  ") {
		t.Error("Expected empty terms never to match")
	}
}

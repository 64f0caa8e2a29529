package game

import (
	mrand "math/rand"
	"testing"
)

func TestShoeComposition(t *testing.T) {
	s := newShoe(5, 60, mrand.New(mrand.NewSource(1)))
	if s.remaining() != 260 {
		t.Fatalf("fresh five-deck shoe holds %d cards, want 260", s.remaining())
	}

	counts := make(map[Card]int)
	for _, c := range s.cards {
		counts[c]++
	}
	if len(counts) != 52 {
		t.Fatalf("shoe holds %d distinct cards, want 52", len(counts))
	}
	for c, n := range counts {
		if n != 5 {
			t.Fatalf("card %s appears %d times, want 5", c, n)
		}
	}
}

func TestShoeRebuildsBelowPenetration(t *testing.T) {
	s := newShoe(5, 60, mrand.New(mrand.NewSource(42)))

	for i := 0; i < 201; i++ {
		if _, reshuffled := s.draw(); reshuffled {
			t.Fatalf("unexpected rebuild at draw %d", i+1)
		}
	}
	if s.remaining() != 59 {
		t.Fatalf("remaining = %d after 201 draws, want 59", s.remaining())
	}

	_, reshuffled := s.draw()
	if !reshuffled {
		t.Fatalf("draw below the penetration limit must rebuild the shoe")
	}
	if s.remaining() != 259 {
		t.Fatalf("remaining = %d after rebuild draw, want 259", s.remaining())
	}
}

func TestShoeShuffleIsSeedDriven(t *testing.T) {
	a := newShoe(1, 0, mrand.New(mrand.NewSource(7)))
	b := newShoe(1, 0, mrand.New(mrand.NewSource(7)))

	for i := 0; i < 52; i++ {
		ca, _ := a.draw()
		cb, _ := b.draw()
		if ca != cb {
			t.Fatalf("draw %d differs between identically seeded shoes: %s vs %s", i+1, ca, cb)
		}
	}
}

package streak

import "testing"

func TestAdvanceFromZero(t *testing.T) {
	current, longest := Advance(0, 0)
	if current != 1 || longest != 1 {
		t.Errorf("expected (1, 1), got (%d, %d)", current, longest)
	}
}

func TestAdvanceIncrementsByOne(t *testing.T) {
	current, longest := Advance(9, 9)
	if current != 10 || longest != 10 {
		t.Errorf("expected (10, 10), got (%d, %d)", current, longest)
	}
}

func TestAdvanceKeepsLongerBest(t *testing.T) {
	// Current was reset below a historical best; the best must not shrink.
	current, longest := Advance(2, 30)
	if current != 3 {
		t.Errorf("expected current 3, got %d", current)
	}
	if longest != 30 {
		t.Errorf("expected longest 30, got %d", longest)
	}
}

func TestAdvanceInvariants(t *testing.T) {
	current, longest := 0, 0
	for i := 0; i < 100; i++ {
		prevCurrent, prevLongest := current, longest
		current, longest = Advance(current, longest)
		if current != prevCurrent+1 {
			t.Fatalf("current must grow by exactly 1: %d -> %d", prevCurrent, current)
		}
		if longest < prevLongest {
			t.Fatalf("longest must be non-decreasing: %d -> %d", prevLongest, longest)
		}
		if longest < current {
			t.Fatalf("longest %d fell below current %d", longest, current)
		}
	}
}

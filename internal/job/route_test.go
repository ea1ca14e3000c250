package job

import (
	"encoding/json"
	"testing"
)

func holds(n int) []HoldEntry {
	out := make([]HoldEntry, n)
	for i := range out {
		out[i] = HoldEntry{ID: string(rune('a' + i)), X: float64(i), Y: float64(i) * 2, HoldSeconds: 0.5}
	}
	return out
}

func TestDeriveMovesAlternatesHands(t *testing.T) {
	moves := DeriveMoves(holds(2))
	if len(moves) != 2 {
		t.Fatalf("expected 2 moves, got %d", len(moves))
	}
	if moves[0].Limb != LimbLeftHand {
		t.Errorf("expected first move left_hand, got %s", moves[0].Limb)
	}
	if moves[1].Limb != LimbRightHand {
		t.Errorf("expected second move right_hand, got %s", moves[1].Limb)
	}
}

func TestDeriveMovesFeetTrail(t *testing.T) {
	route := holds(4)
	moves := DeriveMoves(route)

	// 4 hand moves plus feet for entries 2 and 3.
	if len(moves) != 6 {
		t.Fatalf("expected 6 moves, got %d", len(moves))
	}

	var footMoves []Move
	for _, m := range moves {
		if m.Limb == LimbLeftFoot || m.Limb == LimbRightFoot {
			footMoves = append(footMoves, m)
		}
	}
	if len(footMoves) != 2 {
		t.Fatalf("expected 2 foot moves, got %d", len(footMoves))
	}
	if footMoves[0].HoldID != route[0].ID {
		t.Errorf("expected first foot on hold %q, got %q", route[0].ID, footMoves[0].HoldID)
	}
	if footMoves[1].HoldID != route[1].ID {
		t.Errorf("expected second foot on hold %q, got %q", route[1].ID, footMoves[1].HoldID)
	}
}

func TestDeriveMovesShortRoutes(t *testing.T) {
	if got := DeriveMoves(nil); len(got) != 0 {
		t.Errorf("expected no moves for empty route, got %d", len(got))
	}
	if got := DeriveMoves(holds(1)); len(got) != 1 {
		t.Errorf("expected 1 move for single hold, got %d", len(got))
	}
}

func TestRouteJSON(t *testing.T) {
	raw, err := RouteJSON(holds(3))
	if err != nil {
		t.Fatalf("RouteJSON failed: %v", err)
	}

	var doc struct {
		Moves []Move `json:"moves"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(doc.Moves) != 4 {
		t.Errorf("expected 4 moves, got %d", len(doc.Moves))
	}
}

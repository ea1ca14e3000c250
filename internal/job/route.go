package job

import "encoding/json"

// Limb identifies the avatar limb a move assigns.
type Limb string

const (
	LimbLeftHand  Limb = "left_hand"
	LimbRightHand Limb = "right_hand"
	LimbLeftFoot  Limb = "left_foot"
	LimbRightFoot Limb = "right_foot"
)

// Move is one derived limb placement on a hold.
type Move struct {
	Limb        Limb    `json:"limb"`
	HoldID      string  `json:"holdId"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	HoldSeconds float64 `json:"holdSeconds"`
}

// DeriveMoves expands an ordered hold list into per-limb moves: hands
// alternate left/right along the route, and each foot follows onto the hold
// its matching hand released two entries earlier.
func DeriveMoves(route []HoldEntry) []Move {
	moves := make([]Move, 0, len(route)*2)

	for i, h := range route {
		hand := LimbLeftHand
		foot := LimbLeftFoot
		if i%2 == 1 {
			hand = LimbRightHand
			foot = LimbRightFoot
		}

		moves = append(moves, Move{
			Limb:        hand,
			HoldID:      h.ID,
			X:           h.X,
			Y:           h.Y,
			HoldSeconds: h.HoldSeconds,
		})

		if i >= 2 {
			t := route[i-2]
			moves = append(moves, Move{
				Limb:        foot,
				HoldID:      t.ID,
				X:           t.X,
				Y:           t.Y,
				HoldSeconds: t.HoldSeconds,
			})
		}
	}

	return moves
}

// routeDocument is the wire shape handed to the scene driver.
type routeDocument struct {
	Moves []Move `json:"moves"`
}

// RouteJSON serializes the derived moves for LoadRoute.
func RouteJSON(route []HoldEntry) ([]byte, error) {
	return json.Marshal(routeDocument{Moves: DeriveMoves(route)})
}

package ports

import "klondike/internal/domain"

// MoveRequest describes a single-card transfer awaiting a legality check.
type MoveRequest struct {
	From   domain.StackID
	To     domain.StackID
	Card   domain.Card // card leaving From
	Target domain.Card // current top of To, EmptyCard when To is empty
}

// MoveValidator decides whether a move is allowed by the game rules.
type MoveValidator interface {
	// ValidateMove returns nil when the move is legal, or an error describing
	// the rule it breaks.
	ValidateMove(req MoveRequest) error
}

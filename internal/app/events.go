package app

import "klondike/internal/domain"

// EventKind identifies emitted domain events for Nakama dispatch.
type EventKind string

const (
	EventGameStarted  EventKind = "game_started"
	EventCardsDrawn   EventKind = "cards_drawn"
	EventDeckRecycled EventKind = "deck_recycled"
	EventCardMoved    EventKind = "card_moved"
	EventViewUpdated  EventKind = "view_updated"
	EventGameWon      EventKind = "game_won"
)

// Event is an app event addressed to the player.
type Event struct {
	Kind    EventKind
	Payload any
}

type GameStartedPayload struct {
	GameID string
	Mode   domain.Mode
	View   View
}

type CardsDrawnPayload struct {
	Count int
}

type DeckRecycledPayload struct {
	DeckSize int
}

// CardMovedPayload reports a move. Card was face-up when it moved, so it is
// public information.
type CardMovedPayload struct {
	From     domain.StackID
	To       domain.StackID
	Card     domain.Card
	Revealed bool
}

type ViewUpdatedPayload struct {
	View View
}

type GameWonPayload struct {
	GameID     string
	Generation domain.Generation
}

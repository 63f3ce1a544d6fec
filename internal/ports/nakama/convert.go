package nakama

import (
	"klondike/internal/app"
	"klondike/internal/domain"
)

// Wire types for the JSON messages exchanged with clients.

type wireCard struct {
	Kind   string `json:"kind"`
	Suit   string `json:"suit,omitempty"`
	Rank   int    `json:"rank,omitempty"`
	FaceUp bool   `json:"face_up,omitempty"`
}

type wireStack struct {
	ID           string     `json:"id"`
	LastModified int64      `json:"last_modified"`
	Cards        []wireCard `json:"cards"`
}

type wireView struct {
	GameID       string      `json:"game_id"`
	Mode         string      `json:"mode"`
	Phase        string      `json:"phase"`
	LastModified int64       `json:"last_modified"`
	Full         bool        `json:"full"`
	Stacks       []wireStack `json:"stacks"`
}

type gameStartedMessage struct {
	GameID string   `json:"game_id"`
	Mode   string   `json:"mode"`
	View   wireView `json:"view"`
}

type viewUpdatedMessage struct {
	View wireView `json:"view"`
}

type cardsDrawnMessage struct {
	Count int `json:"count"`
}

type deckRecycledMessage struct {
	DeckSize int `json:"deck_size"`
}

type cardMovedMessage struct {
	From     string   `json:"from"`
	To       string   `json:"to"`
	Card     wireCard `json:"card"`
	Revealed bool     `json:"revealed"`
}

type gameWonMessage struct {
	GameID     string `json:"game_id"`
	Generation int64  `json:"generation"`
}

type gameErrorMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type newGameRequest struct {
	Mode string `json:"mode"`
}

type moveRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type revealRequest struct {
	Stack string `json:"stack"`
}

// toWireCard maps a client-view card. Unknown cards carry nothing but their
// kind.
func toWireCard(c domain.Card) wireCard {
	if !c.IsDealt() {
		return wireCard{Kind: c.Kind.String()}
	}
	return wireCard{
		Kind:   c.Kind.String(),
		Suit:   c.Suit.String(),
		Rank:   int(c.Rank),
		FaceUp: c.FaceUp,
	}
}

func toWireView(v app.View) wireView {
	stacks := make([]wireStack, 0, len(v.Stacks))
	for _, s := range v.Stacks {
		cards := make([]wireCard, 0, len(s.Cards))
		for _, c := range s.Cards {
			cards = append(cards, toWireCard(c))
		}
		stacks = append(stacks, wireStack{
			ID:           s.ID.String(),
			LastModified: int64(s.LastModified),
			Cards:        cards,
		})
	}
	return wireView{
		GameID:       v.GameID,
		Mode:         v.Mode.String(),
		Phase:        string(v.Phase),
		LastModified: int64(v.LastModified),
		Full:         v.Full,
		Stacks:       stacks,
	}
}

package domain

import "fmt"

// Suit identifies one of the four French suits.
type Suit int8

const (
	SuitNone Suit = iota
	Hearts
	Diamonds
	Clubs
	Spades
)

// Suits lists the real suits in deck-building order.
var Suits = [4]Suit{Hearts, Diamonds, Clubs, Spades}

func (s Suit) String() string {
	switch s {
	case Hearts:
		return "H"
	case Diamonds:
		return "D"
	case Clubs:
		return "C"
	case Spades:
		return "S"
	default:
		return "-"
	}
}

// Red reports whether the suit is a red one.
func (s Suit) Red() bool {
	return s == Hearts || s == Diamonds
}

// Rank is a card rank from Ace (1) to King (13).
type Rank int8

const (
	RankNone Rank = 0
	Ace      Rank = 1
	Jack     Rank = 11
	Queen    Rank = 12
	King     Rank = 13
)

func (r Rank) String() string {
	switch r {
	case Ace:
		return "A"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case RankNone:
		return "-"
	default:
		return fmt.Sprintf("%d", int(r))
	}
}

// CardKind tags what a card value stands for.
type CardKind uint8

const (
	// KindEmpty is an unused slot.
	KindEmpty CardKind = iota
	// KindUnknown is a face-down card whose identity is withheld.
	KindUnknown
	// KindDealt is a real card with a concrete suit and rank.
	KindDealt
)

func (k CardKind) String() string {
	switch k {
	case KindUnknown:
		return "unknown"
	case KindDealt:
		return "dealt"
	default:
		return "empty"
	}
}

// Card is a single card value. Cards compare with ==.
type Card struct {
	Kind   CardKind
	Suit   Suit
	Rank   Rank
	FaceUp bool
}

var (
	// EmptyCard marks a slot with no card in it.
	EmptyCard = Card{Kind: KindEmpty}
	// UnknownCard is how a face-down card appears in a redacted view.
	UnknownCard = Card{Kind: KindUnknown}
)

// NewCard returns a dealt card.
func NewCard(suit Suit, rank Rank, faceUp bool) Card {
	return Card{Kind: KindDealt, Suit: suit, Rank: rank, FaceUp: faceUp}
}

// IsEmpty reports whether c is the empty sentinel.
func (c Card) IsEmpty() bool { return c == EmptyCard }

// IsUnknown reports whether c is the unknown sentinel.
func (c Card) IsUnknown() bool { return c == UnknownCard }

// IsDealt reports whether c is a real card.
func (c Card) IsDealt() bool { return c.Kind == KindDealt }

// Redacted returns the card as a player may see it.
func (c Card) Redacted() Card {
	if c.Kind == KindDealt && !c.FaceUp {
		return UnknownCard
	}
	return c
}

func (c Card) String() string {
	switch c.Kind {
	case KindEmpty:
		return "[  ]"
	case KindUnknown:
		return "[??]"
	}
	if c.FaceUp {
		return c.Rank.String() + c.Suit.String()
	}
	return "(" + c.Rank.String() + c.Suit.String() + ")"
}

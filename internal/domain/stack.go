package domain

import "fmt"

// Generation is a logical clock value. Every authoritative operation runs
// under a generation strictly greater than the previous one.
type Generation int64

// Stack capacities. 28 of the 52 cards are dealt to the tableaus, leaving
// at most 24 for the deck or the waste. A tableau holds at most 6 face-down
// cards under a full King-to-Ace run.
const (
	DeckSize           = 52
	DeckCapacity       = 24
	WasteCapacity      = 24
	FoundationCapacity = 13
	TableauCapacity    = 19

	NumFoundations = 4
	NumTableaus    = 7
)

// Stack is an ordered, fixed-capacity pile of cards. Index 0 is the bottom,
// Len()-1 is the top. The count is the only source of truth for where the
// pile ends; slots at or above it always hold EmptyCard.
type Stack struct {
	cards        []Card
	count        int
	lastModified Generation
	hideable     bool
}

// NewStack allocates an empty stack.
func NewStack(capacity int, hideable bool, gen Generation) Stack {
	return Stack{
		cards:        make([]Card, capacity),
		lastModified: gen,
		hideable:     hideable,
	}
}

// Len returns the number of cards in the stack.
func (s *Stack) Len() int { return s.count }

// Cap returns the fixed capacity.
func (s *Stack) Cap() int { return len(s.cards) }

// Empty reports whether the stack holds no cards.
func (s *Stack) Empty() bool { return s.count == 0 }

// Hideable reports whether the stack may contain face-down cards and so must
// be redacted when projected to a player.
func (s *Stack) Hideable() bool { return s.hideable }

// LastModified returns the generation at which the stack last changed.
func (s *Stack) LastModified() Generation { return s.lastModified }

// IsTerminator reports whether slot i lies past the last card.
func (s *Stack) IsTerminator(i int) bool { return i >= s.count }

// At returns the card at slot i, or EmptyCard past the top.
func (s *Stack) At(i int) Card {
	if i < 0 || i >= s.count {
		return EmptyCard
	}
	return s.cards[i]
}

// Top returns the top card.
func (s *Stack) Top() (Card, bool) {
	if s.count == 0 {
		return EmptyCard, false
	}
	return s.cards[s.count-1], true
}

// Cards returns a copy of the live cards, bottom first.
func (s *Stack) Cards() []Card {
	out := make([]Card, s.count)
	copy(out, s.cards[:s.count])
	return out
}

// Push places c on top. Pushing onto a full stack is a caller bug.
func (s *Stack) Push(c Card) {
	if s.count >= len(s.cards) {
		panic(fmt.Sprintf("stack overflow: capacity %d", len(s.cards)))
	}
	s.cards[s.count] = c
	s.count++
}

// Pop removes the top card. It returns false when the stack is empty.
func (s *Stack) Pop() (Card, bool) {
	if s.count == 0 {
		return EmptyCard, false
	}
	s.count--
	c := s.cards[s.count]
	s.cards[s.count] = EmptyCard
	return c, true
}

// SetTopFaceUp sets the orientation of the top card. It returns false when
// the stack is empty.
func (s *Stack) SetTopFaceUp(faceUp bool) bool {
	if s.count == 0 {
		return false
	}
	s.cards[s.count-1].FaceUp = faceUp
	return true
}

// touch advances the stack clock.
func (s *Stack) touch(gen Generation) {
	s.lastModified = gen
}

// reset empties the stack and stamps it with gen.
func (s *Stack) reset(gen Generation) {
	for i := range s.cards {
		s.cards[i] = EmptyCard
	}
	s.count = 0
	s.lastModified = gen
}

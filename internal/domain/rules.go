package domain

import "fmt"

// Mode selects how many cards a draw turns over.
type Mode int

const (
	// ModeClassic turns one card per draw.
	ModeClassic Mode = 0
	// ModeThreeCard turns three cards per draw.
	ModeThreeCard Mode = 1
)

// DeckRecycled is returned by PullFromDeck when the waste was turned back
// into the deck instead of drawing.
const DeckRecycled = -1

// DrawCount returns the maximum number of cards one draw moves.
func (m Mode) DrawCount() int {
	return 1 + 2*int(m)
}

func (m Mode) String() string {
	switch m {
	case ModeClassic:
		return "classic"
	case ModeThreeCard:
		return "three"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode maps a config or wire value to a Mode. The empty string means
// classic.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "classic", "0":
		return ModeClassic, nil
	case "three", "three_card", "1":
		return ModeThreeCard, nil
	}
	return ModeClassic, fmt.Errorf("unknown draw mode %q", s)
}

// MoveCard transfers the top card of src onto dst and stamps both with gen.
// It returns false, leaving both stacks untouched, when src is empty. No
// placement rule is checked here.
func MoveCard(dst, src *Stack, gen Generation) bool {
	c, ok := src.Pop()
	if !ok {
		return false
	}
	dst.Push(c)
	dst.touch(gen)
	src.touch(gen)
	return true
}

// RevealTop turns a face-down top card face-up. It returns false when the
// stack is empty or its top is already face-up.
func RevealTop(s *Stack, gen Generation) bool {
	top, ok := s.Top()
	if !ok || top.FaceUp {
		return false
	}
	s.SetTopFaceUp(true)
	s.touch(gen)
	return true
}

// PullFromDeck draws from the deck onto the waste, or recycles the waste
// when the deck is exhausted.
//
// Recycling moves the waste back one card at a time, so the deck ends up in
// the reverse of the waste order, every card face-down. The result is then
// DeckRecycled.
//
// A draw moves up to mode.DrawCount() cards face-up and returns how many
// moved; fewer than requested means the deck ran out. With both piles empty
// nothing changes and 0 is returned.
func PullFromDeck(shadow *GameState, mode Mode, gen Generation) int {
	if shadow.Deck.Empty() && !shadow.Waste.Empty() {
		for MoveCard(&shadow.Deck, &shadow.Waste, gen) {
			shadow.Deck.SetTopFaceUp(false)
		}
		shadow.LastModified = gen
		return DeckRecycled
	}

	n := 0
	for ; n < mode.DrawCount(); n++ {
		if !MoveCard(&shadow.Waste, &shadow.Deck, gen) {
			break
		}
		shadow.Waste.SetTopFaceUp(true)
		shadow.LastModified = gen
	}
	return n
}

package domain

// Intn is the random source used for shuffling. *rand.Rand satisfies it.
type Intn interface {
	Intn(n int) int
}

// NewDeck returns the 52 cards in suit-major order, all face-down.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, s := range Suits {
		for r := Ace; r <= King; r++ {
			deck = append(deck, NewCard(s, r, false))
		}
	}
	return deck
}

// Shuffle permutes deck in place with Fisher-Yates. j is drawn from [0, i]
// inclusive so every permutation is equally likely.
func Shuffle(deck []Card, rng Intn) {
	for i := len(deck) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}
}

// InitGame deals a fresh shuffled game into shadow and projects it into
// client. Tableau k receives k cards taken from the end of the shuffled set
// with only its top card face-up; the remaining 24 cards form the deck.
// Every shadow clock is set to gen, so gen must be greater than any clock
// client already carries.
func InitGame(shadow, client *GameState, gen Generation, rng Intn) {
	deck := NewDeck()
	Shuffle(deck, rng)

	shadow.LastModified = gen
	cursor := len(deck)
	for i := range shadow.Tableaus {
		n := i + 1
		t := &shadow.Tableaus[i]
		t.reset(gen)
		for _, c := range deck[cursor-n : cursor] {
			t.Push(c)
		}
		t.SetTopFaceUp(true)
		cursor -= n
	}

	for i := range shadow.Foundations {
		shadow.Foundations[i].reset(gen)
	}
	shadow.Waste.reset(gen)

	shadow.Deck.reset(gen)
	for _, c := range deck[:cursor] {
		shadow.Deck.Push(c)
	}

	UpdateClientData(client, shadow)
}

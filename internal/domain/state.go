package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Phase represents the lifecycle stage of a game.
type Phase string

const (
	// PhasePlaying indicates the game is in progress.
	PhasePlaying Phase = "playing"
	// PhaseWon indicates every card reached a foundation.
	PhaseWon Phase = "won"
)

// StackKind names the role a stack plays on the table.
type StackKind string

const (
	StackDeck       StackKind = "deck"
	StackWaste      StackKind = "waste"
	StackFoundation StackKind = "foundation"
	StackTableau    StackKind = "tableau"
)

// StackID addresses one stack of a GameState. Index is 0-based and only
// meaningful for foundations and tableaus.
type StackID struct {
	Kind  StackKind
	Index int
}

var (
	DeckID  = StackID{Kind: StackDeck}
	WasteID = StackID{Kind: StackWaste}
)

// FoundationID returns the identifier of foundation i.
func FoundationID(i int) StackID { return StackID{Kind: StackFoundation, Index: i} }

// TableauID returns the identifier of tableau i.
func TableauID(i int) StackID { return StackID{Kind: StackTableau, Index: i} }

func (id StackID) String() string {
	switch id.Kind {
	case StackFoundation, StackTableau:
		return string(id.Kind) + ":" + strconv.Itoa(id.Index)
	default:
		return string(id.Kind)
	}
}

// ParseStackID parses "deck", "waste", "foundation:N" or "tableau:N".
func ParseStackID(s string) (StackID, error) {
	kind, idx, hasIdx := strings.Cut(strings.TrimSpace(s), ":")
	switch StackKind(kind) {
	case StackDeck, StackWaste:
		if hasIdx {
			return StackID{}, fmt.Errorf("stack %q takes no index", kind)
		}
		return StackID{Kind: StackKind(kind)}, nil
	case StackFoundation, StackTableau:
		if !hasIdx {
			return StackID{}, fmt.Errorf("stack %q needs an index", kind)
		}
		n, err := strconv.Atoi(idx)
		if err != nil {
			return StackID{}, fmt.Errorf("parse stack index %q: %w", idx, err)
		}
		id := StackID{Kind: StackKind(kind), Index: n}
		if !id.Valid() {
			return StackID{}, fmt.Errorf("stack index out of range: %s", id)
		}
		return id, nil
	default:
		return StackID{}, fmt.Errorf("unknown stack %q", s)
	}
}

// Valid reports whether id names a stack of a GameState.
func (id StackID) Valid() bool {
	switch id.Kind {
	case StackDeck, StackWaste:
		return id.Index == 0
	case StackFoundation:
		return id.Index >= 0 && id.Index < NumFoundations
	case StackTableau:
		return id.Index >= 0 && id.Index < NumTableaus
	}
	return false
}

// GameState is one full table layout. The same type backs both the
// authoritative shadow state and the redacted client view; the two never
// share storage.
type GameState struct {
	LastModified Generation
	Deck         Stack
	Waste        Stack
	Foundations  [NumFoundations]Stack
	Tableaus     [NumTableaus]Stack
}

// NewGameState returns an empty table with every clock set to gen.
func NewGameState(gen Generation) *GameState {
	gs := &GameState{
		LastModified: gen,
		Deck:         NewStack(DeckCapacity, true, gen),
		Waste:        NewStack(WasteCapacity, false, gen),
	}
	for i := range gs.Foundations {
		gs.Foundations[i] = NewStack(FoundationCapacity, false, gen)
	}
	for i := range gs.Tableaus {
		gs.Tableaus[i] = NewStack(TableauCapacity, true, gen)
	}
	return gs
}

// Stack resolves id to the stack it names, or nil.
func (gs *GameState) Stack(id StackID) *Stack {
	if !id.Valid() {
		return nil
	}
	switch id.Kind {
	case StackDeck:
		return &gs.Deck
	case StackWaste:
		return &gs.Waste
	case StackFoundation:
		return &gs.Foundations[id.Index]
	default:
		return &gs.Tableaus[id.Index]
	}
}

// StackIDs lists every stack in a fixed order: deck, waste, foundations,
// tableaus.
func StackIDs() []StackID {
	ids := make([]StackID, 0, 2+NumFoundations+NumTableaus)
	ids = append(ids, DeckID, WasteID)
	for i := 0; i < NumFoundations; i++ {
		ids = append(ids, FoundationID(i))
	}
	for i := 0; i < NumTableaus; i++ {
		ids = append(ids, TableauID(i))
	}
	return ids
}

// CardCount returns the number of cards on the table.
func (gs *GameState) CardCount() int {
	n := gs.Deck.Len() + gs.Waste.Len()
	for i := range gs.Foundations {
		n += gs.Foundations[i].Len()
	}
	for i := range gs.Tableaus {
		n += gs.Tableaus[i].Len()
	}
	return n
}

// Touch raises the aggregate clock to gen.
func (gs *GameState) Touch(gen Generation) {
	if gen > gs.LastModified {
		gs.LastModified = gen
	}
}

// Game is a single solitaire session: the authoritative shadow state, the
// player's redacted view of it, and the generation counter driving both.
type Game struct {
	ID     string
	Mode   Mode
	Phase  Phase
	Shadow *GameState
	Client *GameState
	Clock  Generation
}

// Next advances the generation counter and returns the new value.
func (g *Game) Next() Generation {
	g.Clock++
	return g.Clock
}

// Won reports whether every foundation is complete.
func (gs *GameState) Won() bool {
	for i := range gs.Foundations {
		if gs.Foundations[i].Len() != FoundationCapacity {
			return false
		}
	}
	return true
}

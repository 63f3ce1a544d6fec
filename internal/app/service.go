package app

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"klondike/internal/domain"
	"klondike/internal/ports"

	"github.com/google/uuid"
)

// Service contains Klondike use-cases operating on domain state. It mutates
// only a game's shadow state and refreshes the client view through
// domain.UpdateClientData after every operation.
type Service struct {
	rng        *rand.Rand
	validator  ports.MoveValidator
	autoReveal bool
	newID      func() string
}

// Option customizes a Service.
type Option func(*Service)

// WithAutoReveal turns a tableau's exposed face-down card face-up after a
// move takes the card above it.
func WithAutoReveal(on bool) Option {
	return func(s *Service) { s.autoReveal = on }
}

// WithIDGenerator replaces the game id source.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// NewService constructs a Service with provided rng or a time-seeded default.
// A nil validator accepts every mechanically possible move.
func NewService(rng *rand.Rand, validator ports.MoveValidator, opts ...Option) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if validator == nil {
		validator = AllowAllMoves{}
	}
	s := &Service{
		rng:       rng,
		validator: validator,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	ErrNotPlaying   = errors.New("game not in playing phase")
	ErrUnknownMode  = errors.New("unknown draw mode")
	ErrBadClock     = errors.New("initial generation must not be negative")
	ErrUnknownStack = errors.New("unknown stack")
	ErrSameStack    = errors.New("source and destination are the same stack")
	ErrEmptySource  = errors.New("nothing to move")
	ErrFaceDown     = errors.New("top card is face-down")
	ErrStackFull    = errors.New("destination stack is full")
	ErrIllegalMove  = errors.New("illegal move")
)

// AllowAllMoves is the MoveValidator used when no rule set is plugged in.
type AllowAllMoves struct{}

// ValidateMove accepts every request.
func (AllowAllMoves) ValidateMove(ports.MoveRequest) error { return nil }

// StartGame deals a new game. The shadow state is stamped with initial and
// the client view starts one generation below it, so the first
// synchronization copies every stack. initial must not be negative.
func (s *Service) StartGame(mode domain.Mode, initial domain.Generation) (*domain.Game, []Event, error) {
	if mode != domain.ModeClassic && mode != domain.ModeThreeCard {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(mode))
	}
	if initial < 0 {
		return nil, nil, fmt.Errorf("%w: %d", ErrBadClock, int64(initial))
	}

	game := &domain.Game{
		ID:     s.newID(),
		Mode:   mode,
		Phase:  domain.PhasePlaying,
		Shadow: domain.NewGameState(initial - 1),
		Client: domain.NewGameState(initial - 1),
		Clock:  initial,
	}
	domain.InitGame(game.Shadow, game.Client, initial, s.rng)

	events := []Event{
		{
			Kind: EventGameStarted,
			Payload: GameStartedPayload{
				GameID: game.ID,
				Mode:   mode,
				View:   ClientView(game, nil),
			},
		},
	}
	return game, events, nil
}

// Draw turns cards from the deck onto the waste, or recycles the waste when
// the deck is empty.
func (s *Service) Draw(game *domain.Game) ([]Event, error) {
	if game.Phase != domain.PhasePlaying {
		return nil, ErrNotPlaying
	}

	gen := game.Next()
	n := domain.PullFromDeck(game.Shadow, game.Mode, gen)

	var events []Event
	if n == domain.DeckRecycled {
		events = append(events, Event{
			Kind:    EventDeckRecycled,
			Payload: DeckRecycledPayload{DeckSize: game.Shadow.Deck.Len()},
		})
	} else {
		events = append(events, Event{
			Kind:    EventCardsDrawn,
			Payload: CardsDrawnPayload{Count: n},
		})
	}

	return append(events, s.Sync(game)...), nil
}

// Move transfers the top card of from onto to. Only face-up cards move and
// only foundations and tableaus accept cards; anything beyond that is up to
// the configured MoveValidator.
func (s *Service) Move(game *domain.Game, from, to domain.StackID) ([]Event, error) {
	if game.Phase != domain.PhasePlaying {
		return nil, ErrNotPlaying
	}
	if !from.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStack, from)
	}
	if !to.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStack, to)
	}
	if from == to {
		return nil, ErrSameStack
	}
	if to.Kind == domain.StackDeck || to.Kind == domain.StackWaste {
		return nil, fmt.Errorf("%w: cards cannot be placed on the %s", ErrIllegalMove, to)
	}

	src := game.Shadow.Stack(from)
	dst := game.Shadow.Stack(to)

	card, ok := src.Top()
	if !ok {
		return nil, fmt.Errorf("%w: %s is empty", ErrEmptySource, from)
	}
	if !card.FaceUp {
		return nil, fmt.Errorf("%w: %s", ErrFaceDown, from)
	}
	if dst.Len() == dst.Cap() {
		return nil, fmt.Errorf("%w: %s", ErrStackFull, to)
	}

	target, _ := dst.Top()
	if err := s.validator.ValidateMove(ports.MoveRequest{From: from, To: to, Card: card, Target: target}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIllegalMove, err)
	}

	gen := game.Next()
	domain.MoveCard(dst, src, gen)
	revealed := false
	if s.autoReveal && from.Kind == domain.StackTableau {
		revealed = domain.RevealTop(src, gen)
	}
	game.Shadow.Touch(gen)

	events := []Event{
		{
			Kind: EventCardMoved,
			Payload: CardMovedPayload{
				From:     from,
				To:       to,
				Card:     card,
				Revealed: revealed,
			},
		},
	}

	if game.Shadow.Won() {
		game.Phase = domain.PhaseWon
		events = append(events, Event{
			Kind:    EventGameWon,
			Payload: GameWonPayload{GameID: game.ID, Generation: gen},
		})
	}

	return append(events, s.Sync(game)...), nil
}

// Reveal turns the face-down top card of a tableau face-up.
func (s *Service) Reveal(game *domain.Game, id domain.StackID) ([]Event, error) {
	if game.Phase != domain.PhasePlaying {
		return nil, ErrNotPlaying
	}
	if !id.Valid() || id.Kind != domain.StackTableau {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStack, id)
	}

	stack := game.Shadow.Stack(id)
	top, ok := stack.Top()
	if !ok {
		return nil, fmt.Errorf("%w: %s is empty", ErrEmptySource, id)
	}
	if top.FaceUp {
		return nil, fmt.Errorf("%w: top of %s is already face-up", ErrIllegalMove, id)
	}

	gen := game.Next()
	domain.RevealTop(stack, gen)
	game.Shadow.Touch(gen)
	return s.Sync(game), nil
}

// Sync refreshes the client view. It returns a single view update carrying
// the stacks that changed, or nothing when the view was already current.
func (s *Service) Sync(game *domain.Game) []Event {
	changed := domain.UpdateClientData(game.Client, game.Shadow)
	if len(changed) == 0 {
		return nil
	}
	return []Event{
		{
			Kind:    EventViewUpdated,
			Payload: ViewUpdatedPayload{View: ClientView(game, changed)},
		},
	}
}

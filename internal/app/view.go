package app

import "klondike/internal/domain"

// StackSnapshot is a copy of one client-view stack.
type StackSnapshot struct {
	ID           domain.StackID
	LastModified domain.Generation
	Cards        []domain.Card
}

// View is what the player is shown. It is read from the client state only,
// never from the shadow, so it carries no face-down identities.
type View struct {
	GameID       string
	Mode         domain.Mode
	Phase        domain.Phase
	LastModified domain.Generation
	// Full is set when Stacks covers the whole table.
	Full   bool
	Stacks []StackSnapshot
}

// ClientView snapshots the listed stacks of the game's client state, or all
// of them when ids is nil.
func ClientView(game *domain.Game, ids []domain.StackID) View {
	full := ids == nil
	if full {
		ids = domain.StackIDs()
	}

	v := View{
		GameID:       game.ID,
		Mode:         game.Mode,
		Phase:        game.Phase,
		LastModified: game.Client.LastModified,
		Full:         full,
		Stacks:       make([]StackSnapshot, 0, len(ids)),
	}
	for _, id := range ids {
		s := game.Client.Stack(id)
		if s == nil {
			continue
		}
		v.Stacks = append(v.Stacks, StackSnapshot{
			ID:           id,
			LastModified: s.LastModified(),
			Cards:        s.Cards(),
		})
	}
	return v
}

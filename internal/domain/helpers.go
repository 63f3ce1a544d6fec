package domain

import (
	"fmt"
	"io"
)

// Dump writes a human-readable listing of gs: a header with the aggregate
// clock, then one line per stack with its clock, count and cards. Face-down
// cards are shown in parentheses. The format is for debugging only.
func Dump(w io.Writer, gs *GameState) error {
	if _, err := fmt.Fprintf(w, "(%d) ---\n", gs.LastModified); err != nil {
		return err
	}
	for _, id := range StackIDs() {
		s := gs.Stack(id)
		if _, err := fmt.Fprintf(w, "%-12s (%d, %d):", id, s.LastModified(), s.Len()); err != nil {
			return err
		}
		for _, c := range s.Cards() {
			if _, err := fmt.Fprintf(w, " %s", c); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

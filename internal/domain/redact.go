package domain

// PlainCopy copies src into dst verbatim when dst is older than src. It
// reports whether a copy happened.
func PlainCopy(dst, src *Stack) bool {
	if dst.lastModified >= src.lastModified {
		return false
	}
	copyCards(dst, src, func(c Card) Card { return c })
	return true
}

// RedactedCopy copies src into dst when dst is older than src, writing
// UnknownCard in place of every face-down card. The true identity of a
// face-down card is never stored in dst.
func RedactedCopy(dst, src *Stack) bool {
	if dst.lastModified >= src.lastModified {
		return false
	}
	copyCards(dst, src, Card.Redacted)
	return true
}

// SyncStack copies src into dst with the strategy its hideable flag calls
// for.
func SyncStack(dst, src *Stack) bool {
	if src.hideable {
		return RedactedCopy(dst, src)
	}
	return PlainCopy(dst, src)
}

func copyCards(dst, src *Stack, project func(Card) Card) {
	n := src.count
	if n > len(dst.cards) {
		panic("sync: destination smaller than source")
	}
	for i := 0; i < n; i++ {
		dst.cards[i] = project(src.cards[i])
	}
	for i := n; i < len(dst.cards); i++ {
		dst.cards[i] = EmptyCard
	}
	dst.count = n
	dst.lastModified = src.lastModified
}

// UpdateClientData brings client up to date with shadow. Only stacks whose
// clock moved past the client's copy are rewritten; their identifiers are
// returned in StackIDs order. Calling it again without a shadow change is a
// no-op.
func UpdateClientData(client, shadow *GameState) []StackID {
	if client.LastModified >= shadow.LastModified {
		return nil
	}
	client.LastModified = shadow.LastModified

	var changed []StackID
	for _, id := range StackIDs() {
		if SyncStack(client.Stack(id), shadow.Stack(id)) {
			changed = append(changed, id)
		}
	}
	return changed
}

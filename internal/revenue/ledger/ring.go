package ledger

// appendBounded returns a new slice holding the last capacity elements of
// items followed by item. The input slice is never modified, so published
// snapshots stay immutable.
func appendBounded[T any](items []T, capacity int, more ...T) []T {
	total := len(items) + len(more)
	drop := 0
	if total > capacity {
		drop = total - capacity
	}

	out := make([]T, 0, min(total, capacity))
	if drop < len(items) {
		out = append(out, items[drop:]...)
		drop = 0
	} else {
		drop -= len(items)
	}
	return append(out, more[drop:]...)
}

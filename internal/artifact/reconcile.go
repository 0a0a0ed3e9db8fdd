package artifact

// Reconcile merges the newest step collection from a streaming chunk
// with the previously known one. The newest collection is treated as
// authoritative and complete, so the merge is a pass-through; the
// added value is the set of indices that appeared since prev, used by
// callers for transient highlighting.
//
// A newest collection shorter than or equal to prev (a retry or a
// reset) never fails, it just reports nothing new.
func Reconcile(prev, newest []Step) ([]Step, map[int]struct{}) {
	added := make(map[int]struct{})
	for i := len(prev); i < len(newest); i++ {
		added[i] = struct{}{}
	}
	return newest, added
}

// Tracker carries the previous collection across chunks of one
// generation session. It is not safe for concurrent use; a session
// has a single consumer.
type Tracker struct {
	prev []Step
}

// Apply reconciles newest against the tracked state and advances it.
func (t *Tracker) Apply(newest []Step) ([]Step, map[int]struct{}) {
	merged, added := Reconcile(t.prev, newest)
	t.prev = merged
	return merged, added
}

// Steps returns the last reconciled collection.
func (t *Tracker) Steps() []Step { return t.prev }

// Reset clears the tracked state for a fresh session.
func (t *Tracker) Reset() { t.prev = nil }

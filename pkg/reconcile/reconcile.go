// Package reconcile folds streamed text fragments into one growing message.
//
// The upstream does not commit to clean incremental deltas: it may resend a
// whole-message superset, a partial token, or an exact duplicate. Reconcile
// is the single place that decides between discard, append and replace, kept
// as a pure function so it can be swapped out wholesale if the upstream ever
// guarantees strict append-only deltas.
package reconcile

import "strings"

// DeltaThreshold separates short fragments, treated as tokens, from long
// ones, treated as message snapshots.
const DeltaThreshold = 50

// Reconcile returns the next accumulated text given the text built so far
// and the fragments of one incoming event. The first matching rule wins:
//
//  1. identical to previous: duplicate, discard
//  2. short and already contained in previous: re-sent token, discard
//  3. previous empty: first content
//  4. longer superset of previous: cumulative snapshot, replace
//  5. short: incremental delta, append
//  6. otherwise: unrelated snapshot, replace
//
// A whitespace-only fragment trims to "", which every string contains, so
// rule 2 discards it even when previous is still empty.
func Reconcile(previous string, incoming []string) string {
	newText := strings.Join(incoming, "")
	if newText == "" {
		return previous
	}

	switch {
	case newText == previous:
		return previous
	case len(newText) < DeltaThreshold && strings.Contains(previous, strings.TrimSpace(newText)):
		return previous
	case previous == "":
		return newText
	case len(newText) > len(previous) && strings.Contains(newText, strings.TrimSpace(previous)):
		return newText
	case len(newText) < DeltaThreshold:
		return previous + newText
	default:
		return newText
	}
}

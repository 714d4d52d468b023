package reconcile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReconcileEmptyIncomingIsNoOp(t *testing.T) {
	assert.Equal(t, "so far", Reconcile("so far", nil))
	assert.Equal(t, "so far", Reconcile("so far", []string{""}))
}

func TestReconcileExactDuplicateDiscarded(t *testing.T) {
	for _, text := range []string{"x", "Hello", strings.Repeat("long ", 30)} {
		assert.Equal(t, text, Reconcile(text, []string{text}))
	}
}

func TestReconcileShortAlreadySeenTokenDiscarded(t *testing.T) {
	prev := "The weather in Singapore is cloudy."
	assert.Equal(t, prev, Reconcile(prev, []string{"Singapore"}))
	assert.Equal(t, prev, Reconcile(prev, []string{" cloudy"}))
}

func TestReconcileFirstContent(t *testing.T) {
	assert.Equal(t, "Hello", Reconcile("", []string{"Hello"}))
	long := strings.Repeat("a", DeltaThreshold*3)
	assert.Equal(t, long, Reconcile("", []string{long}))
}

func TestReconcileSupersetReplaces(t *testing.T) {
	assert.Equal(t, "Hello", Reconcile("Hel", []string{"Hello"}))

	prev := strings.Repeat("sentence ", 10)
	super := prev + "and more."
	assert.Equal(t, super, Reconcile(prev, []string{super}))
}

func TestReconcileShortDeltaAppends(t *testing.T) {
	assert.Equal(t, "Hello world", Reconcile("Hello", []string{" world"}))
}

func TestReconcileUnrelatedLongChunkReplaces(t *testing.T) {
	prev := "An earlier answer that is reasonably long already."
	next := "A completely different answer, also comfortably beyond the threshold."
	assert.Equal(t, next, Reconcile(prev, []string{next}))
}

func TestReconcileJoinsFragmentsBeforeDeciding(t *testing.T) {
	assert.Equal(t, "Hello world", Reconcile("", []string{"Hello", " ", "world"}))
}

// Growth property: a short unseen delta always appends.
func TestReconcileMonotonicGrowth(t *testing.T) {
	text := "Step"
	for _, delta := range []string{" one,", " two,", " three."} {
		text = Reconcile(text, []string{delta})
	}
	assert.Equal(t, "Step one, two, three.", text)
}

// Whitespace-only fragments trim to "" and rule 2 discards them, even
// before any content arrived.
func TestReconcileWhitespaceOnlyFragmentDiscarded(t *testing.T) {
	assert.Equal(t, "", Reconcile("", []string{"   "}))
	assert.Equal(t, "", Reconcile("", []string{"\n", "\t"}))
	assert.Equal(t, "Hello", Reconcile("Hello", []string{"  "}))
}

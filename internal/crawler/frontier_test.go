package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrontier_EnqueueDeduplicates(t *testing.T) {
	f := NewFrontier()

	assert.True(t, f.Enqueue("https://a.test/b"))
	assert.False(t, f.Enqueue("https://a.test/b"))

	f.MarkFound("https://a.test/c")
	assert.False(t, f.Enqueue("https://a.test/c"))

	f.MarkError("https://a.test/d", "404: https://a.test/d")
	assert.False(t, f.Enqueue("https://a.test/d"))
}

func TestFrontier_DrainQueueClaimsAll(t *testing.T) {
	f := NewFrontier()
	f.Enqueue("https://a.test/1")
	f.Enqueue("https://a.test/2")

	batch := f.DrainQueue()
	assert.Len(t, batch, 2)
	assert.Empty(t, f.DrainQueue())

	// Drained URLs were never classified, so they may be re-enqueued.
	assert.True(t, f.Enqueue("https://a.test/1"))
}

func TestFrontier_FoundAndErrorsStayDisjoint(t *testing.T) {
	f := NewFrontier()

	f.MarkFound("https://a.test/page")
	f.MarkError("https://a.test/page", "404: https://a.test/page")
	assert.Equal(t, []string{"https://a.test/page"}, f.Found())
	assert.Empty(t, f.Errors())

	f.MarkError("https://a.test/gone", "404: https://a.test/gone")
	f.MarkFound("https://a.test/gone")
	assert.Equal(t, []string{"404: https://a.test/gone"}, f.Errors())
	assert.Equal(t, []string{"https://a.test/page"}, f.Found())
}

func TestFrontier_SortedOutput(t *testing.T) {
	f := NewFrontier()
	f.MarkFound("https://a.test/z")
	f.MarkFound("https://a.test/a")
	f.MarkFound("https://a.test/m")

	assert.Equal(t, []string{"https://a.test/a", "https://a.test/m", "https://a.test/z"}, f.Found())
}

func TestFrontier_Counts(t *testing.T) {
	f := NewFrontier()
	f.Enqueue("https://a.test/1")
	f.Enqueue("https://a.test/2")
	f.MarkFound("https://a.test/3")
	f.MarkError("https://a.test/4", "https://a.test/4")

	found, queued, errs := f.Counts()
	assert.Equal(t, 1, found)
	assert.Equal(t, 2, queued)
	assert.Equal(t, 1, errs)
}

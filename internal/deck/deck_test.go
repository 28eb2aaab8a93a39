package deck

import (
	"fmt"
	"testing"

	"github.com/nomnomhq/nomnom/internal/model"
)

func cards(n int) []model.Restaurant {
	out := make([]model.Restaurant, n)
	for i := range out {
		out[i] = model.Restaurant{ID: fmt.Sprintf("RST_%03d", i+1), Name: fmt.Sprintf("Place %d", i+1)}
	}
	return out
}

func TestInitialize_FiresOnce(t *testing.T) {
	t.Parallel()

	c := New(0)
	if !c.Initialize() {
		t.Fatal("first Initialize should request a fetch")
	}
	if c.Initialize() {
		t.Fatal("Initialize with a fetch in flight should not request another")
	}
	c.ApplyFetch(cards(3))
	if c.Initialize() {
		t.Fatal("Initialize after load should not request a fetch")
	}
}

func TestAdvance_CursorTracksCallCount(t *testing.T) {
	t.Parallel()

	c := New(0)
	c.Initialize()
	c.ApplyFetch(cards(5))

	for i := 0; i < 5; i++ {
		got, ok := c.Current()
		if !ok {
			t.Fatalf("Current at cursor %d: no card", i)
		}
		if want := fmt.Sprintf("RST_%03d", i+1); got.ID != want {
			t.Fatalf("Current at cursor %d = %s, want %s", i, got.ID, want)
		}
		c.Advance()
		if c.Cursor() != i+1 {
			t.Fatalf("cursor after %d advances = %d", i+1, c.Cursor())
		}
	}
	if _, ok := c.Current(); ok {
		t.Fatal("Current past the end should report no card")
	}
}

func TestRetreat_FloorsAtZero(t *testing.T) {
	t.Parallel()

	c := New(0)
	c.Initialize()
	c.ApplyFetch(cards(3))

	c.Retreat()
	c.Retreat()
	if c.Cursor() != 0 {
		t.Fatalf("cursor = %d, want 0", c.Cursor())
	}

	c.Advance()
	c.Retreat()
	if c.Cursor() != 0 {
		t.Fatalf("cursor after advance+retreat = %d, want 0", c.Cursor())
	}
}

func TestAdvance_PrefetchAtThreshold(t *testing.T) {
	t.Parallel()

	c := New(2)
	c.Initialize()
	c.ApplyFetch(cards(5))

	fetches := 0
	var gotExclude []string
	for i := 0; i < 3; i++ {
		exclude, fetch := c.Advance()
		if fetch {
			fetches++
			gotExclude = exclude
			// Leave the fetch in flight.
		}
	}

	// len=5, threshold=2: fires exactly at the third advance (next=3).
	if fetches != 1 {
		t.Fatalf("prefetch fired %d times, want 1", fetches)
	}
	if len(gotExclude) != 5 {
		t.Fatalf("exclusion set has %d ids, want 5", len(gotExclude))
	}
	if !c.IsFetching() {
		t.Fatal("fetch should be marked in flight")
	}

	// A further advance while in flight must not fire another fetch.
	if _, fetch := c.Advance(); fetch {
		t.Fatal("second fetch started while one is outstanding")
	}
}

func TestAdvance_NoPrefetchOnceExhausted(t *testing.T) {
	t.Parallel()

	c := New(2)
	c.Initialize()
	c.ApplyFetch(cards(3))

	_, fetch := c.Advance()
	if !fetch {
		t.Fatal("expected a prefetch")
	}
	c.ApplyFetch(nil) // server has nothing more

	if !c.Exhausted() {
		t.Fatal("deck should be exhausted")
	}
	for i := 0; i < 10; i++ {
		if _, fetch := c.Advance(); fetch {
			t.Fatal("fetch fired after exhaustion")
		}
	}
}

func TestEmptyFirstFetch_TerminalEmpty(t *testing.T) {
	t.Parallel()

	c := New(0)
	c.Initialize()
	c.ApplyFetch(nil)

	if got := c.Phase(); got != Empty {
		t.Fatalf("phase = %v, want empty", got)
	}
	for i := 0; i < 5; i++ {
		if _, fetch := c.Advance(); fetch {
			t.Fatal("Empty deck attempted a fetch on advance")
		}
	}
	if got := c.Phase(); got != Empty {
		t.Fatalf("phase after advances = %v, want empty", got)
	}
}

func TestFirstFetchFailure_TerminalEmpty(t *testing.T) {
	t.Parallel()

	c := New(0)
	c.Initialize()
	c.FailFetch()

	if got := c.Phase(); got != Empty {
		t.Fatalf("phase = %v, want empty", got)
	}
	if c.Initialize() {
		t.Fatal("Initialize after first-fetch failure should not retry")
	}
}

func TestLaterFetchFailure_OnlyClearsInFlight(t *testing.T) {
	t.Parallel()

	c := New(2)
	c.Initialize()
	c.ApplyFetch(cards(3))

	_, fetch := c.Advance()
	if !fetch {
		t.Fatal("expected a prefetch")
	}
	c.FailFetch()

	if c.IsFetching() {
		t.Fatal("in-flight flag not cleared")
	}
	if c.Exhausted() {
		t.Fatal("failure must not mark the deck exhausted")
	}
	if c.Len() != 3 {
		t.Fatalf("items changed on failure: len = %d", c.Len())
	}

	// Running off the end now stalls at waiting-for-more.
	c.Advance()
	c.Advance()
	if got := c.Phase(); got != WaitingForMore && got != FetchingMore {
		t.Fatalf("phase = %v, want waiting-for-more or fetching-more", got)
	}
}

func TestApplyFetch_DropsDuplicateIDs(t *testing.T) {
	t.Parallel()

	c := New(0)
	c.Initialize()
	c.ApplyFetch(cards(3))

	more := append(cards(3), model.Restaurant{ID: "RST_099"})
	c.fetching = true
	c.ApplyFetch(more)

	if c.Len() != 4 {
		t.Fatalf("len = %d, want 4 (3 originals + 1 new)", c.Len())
	}
}

func TestToggleDetails_ResetsOnCursorMove(t *testing.T) {
	t.Parallel()

	c := New(0)
	c.Initialize()
	c.ApplyFetch(cards(3))

	c.ToggleDetails()
	if !c.DetailsVisible() {
		t.Fatal("details should be visible after toggle")
	}
	c.Advance()
	if c.DetailsVisible() {
		t.Fatal("advance should collapse details")
	}

	c.ToggleDetails()
	c.Retreat()
	if c.DetailsVisible() {
		t.Fatal("retreat should collapse details")
	}
}

func TestPhase_Transitions(t *testing.T) {
	t.Parallel()

	c := New(2)
	if got := c.Phase(); got != Loading {
		t.Fatalf("initial phase = %v, want loading", got)
	}

	c.Initialize()
	if got := c.Phase(); got != Loading {
		t.Fatalf("phase during first fetch = %v, want loading", got)
	}

	c.ApplyFetch(cards(5))
	if got := c.Phase(); got != Active {
		t.Fatalf("phase = %v, want active", got)
	}

	c.Advance()
	c.Advance()
	c.Advance() // fires the prefetch
	if got := c.Phase(); got != FetchingMore {
		t.Fatalf("phase = %v, want fetching-more", got)
	}

	c.ApplyFetch(nil)
	c.Advance()
	c.Advance()
	if got := c.Phase(); got != ExhaustedAtEnd {
		t.Fatalf("phase = %v, want exhausted", got)
	}
}

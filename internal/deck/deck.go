// Package deck owns the recommendation deck: an ordered, lazily extended
// list of candidates, a cursor into it, and the prefetch bookkeeping that
// keeps the next page loading before the user reaches the end.
//
// The controller is single-threaded and event-driven. It never performs
// network I/O itself: Initialize and Advance report when a fetch is due,
// the host fires it, and delivers the outcome through ApplyFetch/FailFetch.
package deck

import "github.com/nomnomhq/nomnom/internal/model"

// Phase describes the deck's observable state.
type Phase int

const (
	// Loading means the initial fetch has not completed yet.
	Loading Phase = iota
	// Empty is terminal: the first fetch returned nothing or failed.
	Empty
	// Active means the cursor points at a loaded card.
	Active
	// FetchingMore is Active with a page request in flight.
	FetchingMore
	// WaitingForMore means the cursor ran past the loaded cards but the
	// server has not yet said the deck is finished.
	WaitingForMore
	// ExhaustedAtEnd means the cursor ran past the end and the server
	// confirmed no further cards exist.
	ExhaustedAtEnd
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Empty:
		return "empty"
	case Active:
		return "active"
	case FetchingMore:
		return "fetching-more"
	case WaitingForMore:
		return "waiting-for-more"
	case ExhaustedAtEnd:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Controller maintains the deck state. It has a single logical owner and
// no internal locking; all calls must come from one event loop.
type Controller struct {
	items          []model.Restaurant
	cursor         int
	fetching       bool
	exhausted      bool
	loaded         bool // first fetch outcome processed
	detailsVisible bool
	threshold      int
}

// New creates an empty controller. A non-positive threshold falls back to
// model.DefaultPrefetchThreshold.
func New(threshold int) *Controller {
	if threshold <= 0 {
		threshold = model.DefaultPrefetchThreshold
	}
	return &Controller{threshold: threshold}
}

// Initialize marks the first fetch as started and reports whether the host
// should fire it. It returns false once the deck has loaded (or while a
// fetch is already in flight), so calling it again is harmless.
func (c *Controller) Initialize() bool {
	if c.loaded || c.fetching {
		return false
	}
	c.fetching = true
	return true
}

// Current returns the card under the cursor, or ok=false when the cursor
// has run past the loaded cards.
func (c *Controller) Current() (model.Restaurant, bool) {
	if c.cursor >= len(c.items) {
		return model.Restaurant{}, false
	}
	return c.items[c.cursor], true
}

// Advance moves the cursor forward one card and collapses the details
// disclosure. When the remaining loaded cards drop to the prefetch
// threshold it reports that a fetch is due, returning the exclusion set
// (every id currently loaded) and marking the fetch as in flight.
//
// This is the only operation that triggers a prefetch.
func (c *Controller) Advance() (excludeIDs []string, fetch bool) {
	next := c.cursor + 1
	if len(c.items) > 0 && len(c.items)-next <= c.threshold && !c.fetching && !c.exhausted {
		c.fetching = true
		excludeIDs = c.loadedIDs()
		fetch = true
	}
	c.cursor = next
	c.detailsVisible = false
	return excludeIDs, fetch
}

// Retreat moves the cursor back one card, flooring at zero. It never
// triggers a fetch. The details disclosure collapses either way.
func (c *Controller) Retreat() {
	if c.cursor > 0 {
		c.cursor--
	}
	c.detailsVisible = false
}

// ToggleDetails flips the details disclosure for the current card.
func (c *Controller) ToggleDetails() {
	c.detailsVisible = !c.detailsVisible
}

// ApplyFetch delivers a successful fetch result. An empty result on the
// very first fetch leaves the deck permanently empty; an empty result
// later marks the deck exhausted while keeping loaded cards navigable.
// Ids already present are dropped defensively.
func (c *Controller) ApplyFetch(items []model.Restaurant) {
	c.fetching = false
	c.loaded = true

	if len(items) == 0 {
		// First fetch empty => permanently empty deck; later fetch
		// empty => no more pages. Both are sticky.
		c.exhausted = true
		return
	}

	seen := make(map[string]struct{}, len(c.items))
	for _, r := range c.items {
		seen[r.ID] = struct{}{}
	}
	for _, r := range items {
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		c.items = append(c.items, r)
	}
}

// FailFetch delivers a failed fetch. A first-fetch failure leaves the deck
// permanently empty; a later failure only clears the in-flight flag, so
// the deck stalls at WaitingForMore rather than losing loaded cards.
func (c *Controller) FailFetch() {
	c.fetching = false
	if !c.loaded {
		c.loaded = true
		c.exhausted = true
	}
}

// Phase reports the deck's current state.
func (c *Controller) Phase() Phase {
	switch {
	case !c.loaded:
		return Loading
	case len(c.items) == 0:
		return Empty
	case c.cursor < len(c.items):
		if c.fetching {
			return FetchingMore
		}
		return Active
	case c.exhausted:
		return ExhaustedAtEnd
	default:
		return WaitingForMore
	}
}

// Cursor returns the current cursor position.
func (c *Controller) Cursor() int { return c.cursor }

// Len returns the number of loaded cards.
func (c *Controller) Len() int { return len(c.items) }

// IsFetching reports whether a page request is in flight.
func (c *Controller) IsFetching() bool { return c.fetching }

// Exhausted reports whether the server confirmed there are no more cards.
func (c *Controller) Exhausted() bool { return c.exhausted }

// DetailsVisible reports whether the details disclosure is open.
func (c *Controller) DetailsVisible() bool { return c.detailsVisible }

func (c *Controller) loadedIDs() []string {
	ids := make([]string, len(c.items))
	for i, r := range c.items {
		ids[i] = r.ID
	}
	return ids
}

package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/nomnomhq/nomnom/internal/api"
	"github.com/nomnomhq/nomnom/internal/deck"
	"github.com/nomnomhq/nomnom/internal/journal"
	"github.com/nomnomhq/nomnom/internal/model"
)

// HomePage shows the recommendation deck: one card at a time with
// skip/undo/eat controls, a details disclosure, and a rating modal.
type HomePage struct {
	deps *Deps
	keys KeyMap

	deck      *deck.Controller
	threshold int
	fetchGen  int // bumped on reset so stale responses are dropped

	ratingOpen  bool
	rating      int
	submitting  bool // a rating request is in flight
	ratingSaved bool // confirmation beat before the deck advances

	frame int
}

// freshLogin is passed with the navigation from a successful login so the
// home page drops any previous user's deck.
type freshLogin struct{}

type recsLoadedMsg struct {
	gen   int
	items []model.Restaurant
}

type recsFailedMsg struct {
	gen int
	err error
}

type rateDoneMsg struct {
	restaurantID string
	rating       int
	err          error
}

// ratingShownMsg ends the saved-rating confirmation beat.
type ratingShownMsg struct{}

const ratingConfirmDelay = 2 * time.Second

func ratingConfirmPause() tea.Cmd {
	return tea.Tick(ratingConfirmDelay, func(time.Time) tea.Msg {
		return ratingShownMsg{}
	})
}

// NewHomePage creates the deck view.
func NewHomePage(deps *Deps, threshold int) *HomePage {
	return &HomePage{
		deps:      deps,
		keys:      DefaultKeyMap(),
		deck:      deck.New(threshold),
		threshold: threshold,
	}
}

func (p *HomePage) ID() string { return PageHome }

// OnNav resets the deck when a new user signs in. Returning from the
// profile page carries no params and keeps the deck position.
func (p *HomePage) OnNav(params any) {
	if _, ok := params.(freshLogin); ok {
		p.resetDeck()
	}
}

// resetDeck discards the controller; any response still in flight is
// ignored when it lands.
func (p *HomePage) resetDeck() {
	p.deck = deck.New(p.threshold)
	p.fetchGen++
}

func (p *HomePage) Init() tea.Cmd {
	p.ratingOpen = false
	p.submitting = false
	p.ratingSaved = false
	if p.deck.Initialize() {
		return tea.Batch(p.fetchCmd(nil), spinnerTick())
	}
	return nil
}

func (p *HomePage) fetchCmd(excludeIDs []string) tea.Cmd {
	client := p.deps.API
	gen := p.fetchGen
	return func() tea.Msg {
		items, err := client.FetchRecommendations(context.Background(), excludeIDs)
		if err != nil {
			return recsFailedMsg{gen: gen, err: err}
		}
		return recsLoadedMsg{gen: gen, items: items}
	}
}

func (p *HomePage) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return p.handleKey(msg)

	case spinnerTickMsg:
		if p.deck.IsFetching() || p.submitting {
			p.frame++
			return spinnerTick(), nil
		}
		return nil, nil

	case recsLoadedMsg:
		if msg.gen != p.fetchGen {
			return nil, nil
		}
		p.deck.ApplyFetch(msg.items)
		return nil, nil

	case recsFailedMsg:
		if msg.gen != p.fetchGen {
			return nil, nil
		}
		if errors.Is(msg.err, api.ErrUnauthorized) {
			return p.expireSession()
		}
		p.deps.logger().Warn("recommendation fetch failed", zap.Error(msg.err))
		p.deck.FailFetch()
		return nil, nil

	case rateDoneMsg:
		p.submitting = false
		if msg.err != nil {
			if errors.Is(msg.err, api.ErrUnauthorized) {
				return p.expireSession()
			}
			// A failed rating still counts as a meal; the deck moves on.
			p.deps.logger().Warn("rating submit failed", zap.Error(msg.err))
			p.ratingOpen = false
			return p.advance(), nil
		}
		p.deps.journalInteraction(journal.Interaction{
			Action:       journal.ActionRate,
			RestaurantID: msg.restaurantID,
			Rating:       msg.rating,
		})
		p.ratingSaved = true
		return ratingConfirmPause(), nil

	case ratingShownMsg:
		if !p.ratingSaved {
			return nil, nil
		}
		p.ratingSaved = false
		p.ratingOpen = false
		return p.advance(), nil
	}

	return nil, nil
}

// expireSession clears the saved session and sends the user back to the
// login page with a notice.
func (p *HomePage) expireSession() (tea.Cmd, *PageNav) {
	if err := p.deps.Session.Clear(); err != nil {
		p.deps.logger().Warn("session clear failed", zap.Error(err))
	}
	p.resetDeck()
	return nil, &PageNav{PageID: PageLogin, Params: "Your session expired. Please sign in again."}
}

func (p *HomePage) handleKey(msg tea.KeyMsg) (tea.Cmd, *PageNav) {
	if key.Matches(msg, p.keys.ForceQuit) {
		return tea.Quit, nil
	}

	if p.ratingOpen {
		return p.handleRatingKey(msg)
	}

	switch {
	case key.Matches(msg, p.keys.Quit):
		return tea.Quit, nil

	case key.Matches(msg, p.keys.Profile):
		return nil, &PageNav{PageID: PageProfile}

	case key.Matches(msg, p.keys.Skip):
		cur, ok := p.deck.Current()
		if !ok {
			return nil, nil
		}
		p.deps.journalInteraction(journal.Interaction{
			Action:       journal.ActionSkip,
			RestaurantID: cur.ID,
		})
		return p.advance(), nil

	case key.Matches(msg, p.keys.Undo):
		if p.deck.Cursor() == 0 {
			return nil, nil
		}
		p.deck.Retreat()
		if cur, ok := p.deck.Current(); ok {
			p.deps.journalInteraction(journal.Interaction{
				Action:       journal.ActionUndo,
				RestaurantID: cur.ID,
			})
		}
		return nil, nil

	case key.Matches(msg, p.keys.Eat):
		if _, ok := p.deck.Current(); !ok {
			return nil, nil
		}
		p.ratingOpen = true
		p.rating = 3
		return nil, nil

	case key.Matches(msg, p.keys.Details):
		if _, ok := p.deck.Current(); ok {
			p.deck.ToggleDetails()
		}
		return nil, nil
	}

	return nil, nil
}

func (p *HomePage) handleRatingKey(msg tea.KeyMsg) (tea.Cmd, *PageNav) {
	if p.submitting || p.ratingSaved {
		return nil, nil
	}
	switch {
	case key.Matches(msg, p.keys.Back):
		p.ratingOpen = false
		return nil, nil

	case key.Matches(msg, p.keys.Left):
		if p.rating > 1 {
			p.rating--
		}
		return nil, nil

	case key.Matches(msg, p.keys.Right):
		if p.rating < 5 {
			p.rating++
		}
		return nil, nil

	case key.Matches(msg, p.keys.Skip):
		// Record the meal without a rating.
		cur, ok := p.deck.Current()
		if !ok {
			p.ratingOpen = false
			return nil, nil
		}
		p.deps.journalInteraction(journal.Interaction{
			Action:       journal.ActionEat,
			RestaurantID: cur.ID,
		})
		p.ratingOpen = false
		return p.advance(), nil

	case key.Matches(msg, p.keys.Submit):
		cur, ok := p.deck.Current()
		if !ok {
			p.ratingOpen = false
			return nil, nil
		}
		p.submitting = true
		return tea.Batch(p.rateCmd(cur.ID, p.rating), spinnerTick()), nil
	}
	return nil, nil
}

func (p *HomePage) rateCmd(restaurantID string, rating int) tea.Cmd {
	client := p.deps.API
	return func() tea.Msg {
		err := client.SubmitRating(context.Background(), restaurantID, rating)
		return rateDoneMsg{restaurantID: restaurantID, rating: rating, err: err}
	}
}

// advance moves to the next card and fires a prefetch when the controller
// asks for one.
func (p *HomePage) advance() tea.Cmd {
	excludeIDs, fetch := p.deck.Advance()
	if fetch {
		return tea.Batch(p.fetchCmd(excludeIDs), spinnerTick())
	}
	return nil
}

func (p *HomePage) View(width, height int) string {
	switch p.deck.Phase() {
	case deck.Loading:
		return renderLoadingPlaceholder(width, height, "Finding something tasty...")

	case deck.Empty:
		body := lipgloss.JoinVertical(lipgloss.Center,
			renderBranding(),
			"",
			mutedStyle.Render("No recommendations right now."),
			mutedStyle.Render("Check back later."),
			"",
			helpStyle.Render("p: profile • q: quit"),
		)
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, body)

	case deck.WaitingForMore:
		return renderLoadingPlaceholder(width, height, "Finding more places...")

	case deck.ExhaustedAtEnd:
		body := lipgloss.JoinVertical(lipgloss.Center,
			renderBranding(),
			"",
			titleStyle.Render("You've seen it all!"),
			mutedStyle.Render("No more recommendations for now."),
			"",
			helpStyle.Render("u/←: go back • p: profile • q: quit"),
		)
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, body)
	}

	cur, ok := p.deck.Current()
	if !ok {
		return renderLoadingPlaceholder(width, height, "Finding more places...")
	}

	if p.ratingOpen {
		return p.renderRatingModal(width, height, cur)
	}

	card := p.renderCard(cur)

	var footer []string
	if p.deck.IsFetching() {
		frame := spinnerFrames[p.frame%len(spinnerFrames)]
		footer = append(footer, mutedStyle.Render(frame+" loading more..."))
	}
	footer = append(footer, helpStyle.Render("s/→: skip • e/enter: eat • u/←: undo • d: details • p: profile • q: quit"))

	body := lipgloss.JoinVertical(lipgloss.Center,
		renderBranding(),
		"",
		card,
		"",
		lipgloss.JoinVertical(lipgloss.Center, footer...),
	)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, body)
}

func (p *HomePage) renderCard(r model.Restaurant) string {
	var lines []string

	lines = append(lines, titleStyle.Render(r.Name))
	lines = append(lines, starStyle.Render(deck.StarRating(r.Rating))+labelStyle.Render(fmt.Sprintf(" %.1f", r.Rating)))

	if len(r.Tags) > 0 {
		tags := make([]string, len(r.Tags))
		for i, t := range r.Tags {
			tags[i] = tagStyle.Render(t)
		}
		lines = append(lines, strings.Join(tags, " "))
	}

	if pr := deck.FormatPriceRange(r.PriceRange); pr != "" {
		lines = append(lines, priceStyle.Render(pr))
	}

	if p.deck.DetailsVisible() {
		lines = append(lines, "", p.renderDetails(r))
	}

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (p *HomePage) renderDetails(r model.Restaurant) string {
	var lines []string

	if r.Description != "" {
		lines = append(lines, r.Description, "")
	}
	if r.Address != "" {
		lines = append(lines, labelStyle.Render("Address: ")+r.Address)
	}
	if r.Phone != "" {
		lines = append(lines, labelStyle.Render("Phone:   ")+r.Phone)
	}

	status, isOpen := deck.OpenStatus(r.OpeningTime, r.ClosingTime, time.Now())
	badge := closedStyle.Render(status)
	if isOpen {
		badge = openStyle.Render(status)
	}
	lines = append(lines, labelStyle.Render("Hours:   ")+badge)

	if url, ok := deck.MapURL(r.Location, p.deps.MapsKey); ok {
		lines = append(lines, labelStyle.Render("Map:     ")+url)
	} else {
		lines = append(lines, labelStyle.Render("Map:     ")+mutedStyle.Render("Map Not Available"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (p *HomePage) renderRatingModal(width, height int, r model.Restaurant) string {
	stars := make([]string, 5)
	for i := range stars {
		if i < p.rating {
			stars[i] = starStyle.Render("★")
		} else {
			stars[i] = labelStyle.Render("☆")
		}
	}

	var lines []string
	lines = append(lines,
		titleStyle.Render("How was "+r.Name+"?"),
		"",
		strings.Join(stars, " ")+labelStyle.Render(fmt.Sprintf("  %d/5", p.rating)),
		"",
	)
	switch {
	case p.ratingSaved:
		lines = append(lines, openStyle.Render("Rating saved!"))
	case p.submitting:
		frame := spinnerFrames[p.frame%len(spinnerFrames)]
		lines = append(lines, mutedStyle.Render(frame+" Saving..."))
	default:
		lines = append(lines, helpStyle.Render("←/→: stars • enter: rate • s: eat without rating • esc: cancel"))
	}

	modal := cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modal)
}

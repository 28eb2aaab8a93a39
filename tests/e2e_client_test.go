package tests

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nomnomhq/nomnom/internal/api"
	"github.com/nomnomhq/nomnom/internal/deck"
	"github.com/nomnomhq/nomnom/internal/devserver"
	"github.com/nomnomhq/nomnom/internal/model"
	"github.com/nomnomhq/nomnom/internal/session"
)

// startDevServer runs the in-memory recommendation service on a random
// port with the built-in fixtures.
func startDevServer(t *testing.T, cfg devserver.Config) *devserver.Server {
	t.Helper()
	cfg.Addr = "127.0.0.1:0"
	fx, err := devserver.LoadFixtures("")
	if err != nil {
		t.Fatalf("fixtures: %v", err)
	}
	s, err := devserver.NewServer(cfg, fx, nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func newClient(t *testing.T, base string) (*api.Client, *session.Store) {
	t.Helper()
	store, err := session.Open(filepath.Join(t.TempDir(), "session.yml"))
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	return api.NewClient(base, store), store
}

func loginFixtureUser(t *testing.T, client *api.Client, store *session.Store) {
	t.Helper()
	res, err := client.Login(context.Background(), "potato", "potato123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := store.Save(res.AccessToken, res.Username); err != nil {
		t.Fatalf("save session: %v", err)
	}
}

func TestE2E_DeckConsumesEveryRecommendationOnce(t *testing.T) {
	srv := startDevServer(t, devserver.Config{PageSize: 3})
	base := "http://" + srv.Addr()

	client, store := newClient(t, base)
	loginFixtureUser(t, client, store)

	ctx := context.Background()
	ctrl := deck.New(2)

	fetch := func(excludeIDs []string) {
		t.Helper()
		items, err := client.FetchRecommendations(ctx, excludeIDs)
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		ctrl.ApplyFetch(items)
	}

	if !ctrl.Initialize() {
		t.Fatal("Initialize should request the first fetch")
	}
	fetch(nil)
	if ctrl.Phase() != deck.Active {
		t.Fatalf("phase after first fetch = %v", ctrl.Phase())
	}

	// Walk the whole deck, honoring each prefetch request, until the
	// service runs out of restaurants.
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		cur, ok := ctrl.Current()
		if !ok {
			break
		}
		if seen[cur.ID] {
			t.Fatalf("restaurant %s served twice", cur.ID)
		}
		seen[cur.ID] = true

		excludeIDs, due := ctrl.Advance()
		if due {
			fetch(excludeIDs)
		}
	}
	if !ctrl.Exhausted() {
		t.Fatal("deck should be exhausted after walking every card")
	}
	if ctrl.Phase() != deck.ExhaustedAtEnd {
		t.Fatalf("final phase = %v", ctrl.Phase())
	}

	// The fixture set holds seven restaurants; every one should have
	// been dealt exactly once.
	if len(seen) != 7 {
		t.Fatalf("saw %d unique restaurants, want 7", len(seen))
	}
}

func TestE2E_RatingShowsUpInProfile(t *testing.T) {
	srv := startDevServer(t, devserver.Config{})
	base := "http://" + srv.Addr()

	client, store := newClient(t, base)
	loginFixtureUser(t, client, store)

	ctx := context.Background()
	items, err := client.FetchRecommendations(ctx, nil)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(items) == 0 {
		t.Fatal("no recommendations from fixture data")
	}

	if err := client.SubmitRating(ctx, items[0].ID, 5); err != nil {
		t.Fatalf("rate: %v", err)
	}
	if err := client.SubmitRating(ctx, items[1].ID, 3); err != nil {
		t.Fatalf("rate: %v", err)
	}

	profile, err := client.Profile(ctx)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.Stats.TotalMeals != 2 {
		t.Fatalf("total meals = %d, want 2", profile.Stats.TotalMeals)
	}
	if profile.Stats.AverageRating != 4 {
		t.Fatalf("average rating = %v, want 4", profile.Stats.AverageRating)
	}
	if len(profile.RecentMeals) != 2 {
		t.Fatalf("recent meals = %d, want 2", len(profile.RecentMeals))
	}
	if profile.RecentMeals[0].RestaurantName == "" {
		t.Fatal("recent meal should carry the restaurant name")
	}
}

func TestE2E_RegisterLoginAndEditProfile(t *testing.T) {
	srv := startDevServer(t, devserver.Config{})
	base := "http://" + srv.Addr()

	client, store := newClient(t, base)
	ctx := context.Background()

	reg := model.Registration{
		Username: "newcomer",
		FullName: "New Comer",
		Email:    "newcomer@example.com",
		Password: "hunter22",
		DOB:      "1999-01-31",
	}
	if err := client.Register(ctx, reg); err != nil {
		t.Fatalf("register: %v", err)
	}

	// Re-registering the same username conflicts.
	if err := client.Register(ctx, reg); !errors.Is(err, api.ErrConflict) {
		t.Fatalf("duplicate register error = %v, want conflict", err)
	}

	res, err := client.Login(ctx, "newcomer", "hunter22")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := store.Save(res.AccessToken, res.Username); err != nil {
		t.Fatalf("save session: %v", err)
	}

	updated, err := client.UpdateProfile(ctx, model.ProfileUpdate{
		Name:     "N. Comer",
		Location: "George Town",
	})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.Name != "N. Comer" || updated.Location != "George Town" {
		t.Fatalf("updated profile = %+v", updated)
	}

	profile, err := client.Profile(ctx)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.UserInfo.Name != "N. Comer" {
		t.Fatalf("profile name = %q after update", profile.UserInfo.Name)
	}
	if profile.Stats.TotalMeals != 0 {
		t.Fatalf("fresh account has %d meals", profile.Stats.TotalMeals)
	}
}

func TestE2E_ChangePasswordRoundTrip(t *testing.T) {
	srv := startDevServer(t, devserver.Config{})
	base := "http://" + srv.Addr()

	client, store := newClient(t, base)
	loginFixtureUser(t, client, store)

	ctx := context.Background()

	err := client.ChangePassword(ctx, "wrong-password", "irrelevant")
	if !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("wrong current password error = %v, want unauthorized", err)
	}

	if err := client.ChangePassword(ctx, "potato123", "potato456"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	// The old password no longer works; the new one does.
	if _, err := client.Login(ctx, "potato", "potato123"); !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("old password error = %v, want unauthorized", err)
	}
	if _, err := client.Login(ctx, "potato", "potato456"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestE2E_RequestsWithoutTokenAreRejected(t *testing.T) {
	srv := startDevServer(t, devserver.Config{})
	base := "http://" + srv.Addr()

	client, _ := newClient(t, base)
	_, err := client.FetchRecommendations(context.Background(), nil)
	if !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("unauthenticated fetch error = %v, want unauthorized", err)
	}
}

func TestE2E_ExpiredSessionIsNotSentToTheServer(t *testing.T) {
	srv := startDevServer(t, devserver.Config{TokenTTL: time.Minute})
	base := "http://" + srv.Addr()

	client, store := newClient(t, base)
	loginFixtureUser(t, client, store)

	if _, ok := store.Token(); !ok {
		t.Fatal("freshly minted token should be served")
	}
	if _, err := client.FetchRecommendations(context.Background(), nil); err != nil {
		t.Fatalf("fetch with fresh token: %v", err)
	}

	// Expired consults the token's own exp claim, so a one-minute TTL
	// is stale two minutes from now.
	if !store.Expired(time.Now().Add(2 * time.Minute)) {
		t.Fatal("token should read as expired past its TTL")
	}
}

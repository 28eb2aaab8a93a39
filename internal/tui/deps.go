package tui

import (
	"context"

	"go.uber.org/zap"

	"github.com/nomnomhq/nomnom/internal/api"
	"github.com/nomnomhq/nomnom/internal/journal"
	"github.com/nomnomhq/nomnom/internal/model"
	"github.com/nomnomhq/nomnom/internal/session"
)

// Page ids used for navigation.
const (
	PageLogin    = "login"
	PageRegister = "register"
	PageHome     = "home"
	PageProfile  = "profile"
)

// Service is everything the pages need from the backend. *api.Client is
// the production implementation.
type Service interface {
	Login(ctx context.Context, username, password string) (*api.LoginResult, error)
	Register(ctx context.Context, reg model.Registration) error
	model.RecommendationSource
	model.ProfileSource
}

// Deps carries the collaborators every page shares. Journal may be nil
// (journaling is best-effort); Log must not be.
type Deps struct {
	API     Service
	Session *session.Store
	Journal *journal.Journal
	Log     *zap.Logger
	MapsKey string
}

func (d *Deps) logger() *zap.Logger {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return d.Log
}

// journalInteraction appends to the interaction journal, logging and
// swallowing any error. Deck behavior never depends on it.
func (d *Deps) journalInteraction(it journal.Interaction) {
	if d.Journal == nil {
		return
	}
	if _, err := d.Journal.Append(it); err != nil {
		d.logger().Warn("journal append failed", zap.Error(err))
	}
}

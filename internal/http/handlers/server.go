package handlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/rogerio-castellano/everytools-api/internal/auth"
	"github.com/rogerio-castellano/everytools-api/internal/models"
	"github.com/rogerio-castellano/everytools-api/internal/urlgen"
)

// ProductWrapper fetches and normalises a shop listing.
type ProductWrapper interface {
	Source() string
	Product(ctx context.Context, id int64) (*models.Product, error)
}

// Randomizer draws numbers from caller ranges.
type Randomizer interface {
	Int(min, max int64) (int64, error)
	Float(min, max float64, decimals int) (float64, error)
}

// Flusher drops every cached response.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Resetter forgets every rate limit counter.
type Resetter interface {
	Reset(ctx context.Context) error
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services the handlers are built on. Auth, Cache, Limiter and
// Redis may be nil.
type Deps struct {
	MediaFire   urlgen.Generator
	GoogleDrive urlgen.Generator
	Gofile      urlgen.Generator
	AliExpress  ProductWrapper
	Randomizer  Randomizer

	Cache   Flusher
	Limiter Resetter
	Redis   Pinger
	Auth    *auth.Service

	GofileMaintenance bool
	ScraperLimits     string
	RandomizerLimits  string

	Log *zap.Logger
}

type Handlers struct {
	deps Deps
	log  *zap.Logger
}

func New(d Deps) *Handlers {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{deps: d, log: log}
}

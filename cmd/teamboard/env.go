package main

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"

	"github.com/dori/teamboard/internal/app"
	"github.com/dori/teamboard/internal/reconcile"
	"github.com/dori/teamboard/internal/store"
)

// env builds the application for a command
type env struct {
	open func(opts app.Options) (*app.App, error)
}

func defaultEnv() *env {
	return &env{
		open: func(opts app.Options) (*app.App, error) {
			return app.New(nil, opts)
		},
	}
}

// globalOptions are the persistent flags of the root command
type globalOptions struct {
	offline bool
}

// read opens the application for a read-only command. The store is seeded
// from the cache; sections are fetched when refresh is set or when the
// cache lacks one of them.
func (e *env) read(ctx context.Context, g *globalOptions, refresh bool, sections ...store.Section) (*app.App, error) {
	a, err := e.open(app.Options{Offline: g.offline})
	if err != nil {
		return nil, err
	}
	if _, err := a.Loader.Warm(ctx); err != nil {
		a.Log.WithError(err).Warn("cache unreadable")
	}

	if !a.Offline && (refresh || a.Store.Snapshot().Ready(sections...) != nil) {
		report := a.Loader.Load(ctx, sections...)
		if err := report.Err(); err != nil {
			a.Log.WithError(err).Warn("load incomplete")
		}
	}
	if err := a.Store.Snapshot().Ready(sections...); err != nil {
		a.Close()
		if g.offline {
			return nil, fmt.Errorf("%w (the cache is empty; run without --offline once)", err)
		}
		return nil, err
	}
	return a, nil
}

// write opens the application for a mutating command. It takes the
// single-instance lock and always fetches fresh data so conflict checks
// see the current assignments.
func (e *env) write(ctx context.Context, g *globalOptions, sections ...store.Section) (*app.App, error) {
	if g.offline {
		return nil, errors.New("changes need the API; drop --offline")
	}
	a, err := e.open(app.Options{Lock: true})
	if err != nil {
		return nil, err
	}
	report := a.Loader.Load(ctx, sections...)
	if err := report.Err(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// describe names the users and groups of a conflict
func describe(a *app.App, err error) error {
	var ce *reconcile.ConflictError
	if errors.As(err, &ce) {
		return errors.New(ce.Describe(a.Store.Snapshot()))
	}
	return err
}

// assignmentSections are what a write needs to check conflicts
func assignmentSections(items store.Section) []store.Section {
	return []store.Section{store.SectionUsers, store.SectionGroups, store.SectionMemberships, items}
}

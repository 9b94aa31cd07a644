// Package reconcile verifies provisional applications against the federation registry.
//
// A job covers one (tournament, team) pair. It walks the states
//
//	idle -> fetching -> matching -> persisting -> done
//	idle -> fetching -> failed
//
// Fetching decrypts the tournament's registry credentials, opens a session and searches
// the team, retrying transient registry errors with exponential backoff. Matching runs
// the pure matcher for every pending or unverifiable application. Persisting stores all
// outcomes in one transaction; once it starts, caller cancellation no longer applies.
//
// When the registry cannot be read (retries exhausted, credentials rejected, markup
// changed) the job fails, but every application still receives a persisted
// registry-unavailable outcome with a failure kind, so administrators can tell
// "retry later" from "needs maintenance".
//
// # Concurrency
//
// Jobs for the same (tournament, team) are mutually exclusive through a lock.Locker;
// the second caller gets ErrBusy and is never queued. Jobs for different teams run in
// parallel and share nothing but the optional roster cache, which is keyed per
// (tournament, team, year) and protected against stampedes with singleflight.
//
// # Usage
//
//	engine := reconcile.NewEngine(cfg.Reconcile, reconcile.Deps{
//	    Tournaments:  st.Tournaments,
//	    Applications: st.Applications,
//	    Results:      st.Results,
//	    Credentials:  creds,
//	    Registry:     registry.NewJBAClient(cfg.Registry, nil, logger),
//	    Locker:       locker,
//	})
//	summary, err := engine.Reconcile(ctx, reconcile.Request{TournamentID: 1, Team: "A大学"})
package reconcile

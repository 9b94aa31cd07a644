// Package registry reads the roster of the basketball federation registry.
//
// The registry has no API. JBAClient drives the same screens a team administrator uses:
// it logs in with a CSRF token, posts the team search form (fiscal year, team name,
// men's division) and scrapes the member table of every matching team page.
//
// All failures are *Error values categorized as auth, transient, parse or not_found.
// Only transient errors are retryable; retry policy belongs to the caller.
//
//	client := registry.NewJBAClient(cfg.Registry, nil, logger)
//	session, err := client.OpenSession(ctx, creds)
//	if err != nil {
//	    return err
//	}
//	defer session.Close()
//	records, err := session.SearchTeam(ctx, "A大学", 2025)
package registry

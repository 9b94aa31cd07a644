// Package loader mounts the HTTP features of the verifier onto the Fiber app.
//
// A feature owns a route group and decides for itself whether it is enabled.
// The Manager loads enabled features in
// registration order and stops at the first one that fails to mount:
//
//	m := loader.NewManager()
//	m.Register(verification.NewFeature(engine, st, log))
//	loaded, err := m.LoadAll(app)
//
// Features are kept independent of each other so that the verification routes
// can be tested with a bare Fiber app and a fake job runner.
package loader

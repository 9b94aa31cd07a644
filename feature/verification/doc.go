// Package verification exposes roster verification over HTTP.
//
// It wraps the reconciliation engine and the result store. Every call names its
// tournament explicitly; there is no process-wide "current tournament".
//
// # Components
//
//   - Service: Runs jobs through a Runner and reads results from the store.
//   - Handler: Maps requests to the service and domain errors to status codes.
//   - Loader: Registers the feature with the application.
//
// # HTTP Endpoints
//
//   - POST /verification/tournaments/:tournamentID/teams/:team/reconcile : Reconcile one team (?async=true returns 202 and a job id).
//   - GET /verification/jobs/:jobID : State of a job.
//   - GET /verification/applications/:applicationID/result : Current result of an application.
//   - GET /verification/applications/:applicationID/history : Every result of an application.
//   - POST /verification/applications/:applicationID/reset : Return an application to pending.
//   - GET /verification/tournaments/active : The active tournament.
//
// # Status Codes
//
// Unknown tournaments, applications and jobs answer 404, closed acceptance 403, a job
// already running for the team 409, missing registry credentials 412.
package verification

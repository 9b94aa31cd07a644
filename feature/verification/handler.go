package verification

import (
	"errors"
	"net/url"

	"roster-verifier/core/credentials"
	"roster-verifier/core/logger"
	"roster-verifier/core/reconcile"
	"roster-verifier/core/store"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for roster verification.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the verification routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/verification")
	group.Post("/tournaments/:tournamentID/teams/:team/reconcile", h.HandleReconcile)
	group.Get("/tournaments/active", h.HandleActiveTournament)
	group.Get("/jobs/:jobID", h.HandleGetJob)
	group.Get("/applications/:applicationID/result", h.HandleGetResult)
	group.Get("/applications/:applicationID/history", h.HandleGetHistory)
	group.Post("/applications/:applicationID/reset", h.HandleReset)
}

// statusOf maps domain errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, ErrJobNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, reconcile.ErrInvalidRequest):
		return fiber.StatusBadRequest
	case errors.Is(err, reconcile.ErrTournamentClosed):
		return fiber.StatusForbidden
	case errors.Is(err, reconcile.ErrBusy):
		return fiber.StatusConflict
	case errors.Is(err, credentials.ErrNotConfigured), errors.Is(err, credentials.ErrNoKey):
		return fiber.StatusPreconditionFailed
	default:
		return fiber.StatusInternalServerError
	}
}

func (h *Handler) fail(c *fiber.Ctx, l *zap.Logger, msg string, err error) error {
	status := statusOf(err)
	if status == fiber.StatusInternalServerError {
		l.Error(msg, zap.Error(err))
	} else {
		l.Info(msg, zap.Error(err), zap.Int("status", status))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func idParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, reconcile.ErrInvalidRequest
	}
	return uint(id), nil
}

// HandleReconcile runs a reconciliation job for one team.
// @Summary Reconcile Team
// @Description Fetches the team's registry roster and verifies every pending application of the team. With async=true the job runs in the background and its id is returned.
// @Tags verification
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param team path string true "Team name as entered by applicants"
// @Param async query boolean false "Run in the background"
// @Success 200 {object} reconcile.Summary "Job Summary"
// @Success 202 {object} map[string]string "Job Started"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 403 {object} map[string]string "Acceptance Closed"
// @Failure 404 {object} map[string]string "Tournament Not Found"
// @Failure 409 {object} map[string]string "Job Already Running"
// @Failure 412 {object} map[string]string "Credentials Not Configured"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /verification/tournaments/{tournamentID}/teams/{team}/reconcile [post]
func (h *Handler) HandleReconcile(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	tournamentID, err := idParam(c, "tournamentID")
	if err != nil {
		return h.fail(c, l, "Invalid tournament id", err)
	}
	team, err := url.PathUnescape(c.Params("team"))
	if err != nil {
		return h.fail(c, l, "Invalid team", reconcile.ErrInvalidRequest)
	}
	l = l.With(zap.Uint("tournament_id", tournamentID), zap.String("team", team))

	if c.QueryBool("async") {
		jobID, err := h.service.Start(c.Context(), tournamentID, team)
		if err != nil {
			return h.fail(c, l, "Reconciliation not started", err)
		}
		l.Info("Reconciliation started", zap.String("job_id", jobID))
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"job_id": jobID})
	}

	l.Info("Reconciliation requested")
	summary, err := h.service.Reconcile(c.Context(), tournamentID, team)
	if err != nil {
		return h.fail(c, l, "Reconciliation failed", err)
	}
	return c.JSON(summary)
}

// HandleGetJob returns the state of a reconciliation job.
// @Summary Get Job
// @Tags verification
// @Produce json
// @Param jobID path string true "Job ID"
// @Success 200 {object} reconcile.Summary "Job Summary"
// @Failure 404 {object} map[string]string "Job Not Found"
// @Router /verification/jobs/{jobID} [get]
func (h *Handler) HandleGetJob(c *fiber.Ctx) error {
	summary, err := h.service.Job(c.Params("jobID"))
	if err != nil {
		return h.fail(c, logger.WithRayID(h.service.logger, c), "Job lookup failed", err)
	}
	return c.JSON(summary)
}

// HandleGetResult returns the current verification result of an application.
// @Summary Get Application Result
// @Tags verification
// @Produce json
// @Param applicationID path int true "Application ID"
// @Success 200 {object} ResultView "Current Result"
// @Failure 404 {object} map[string]string "Not Found"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /verification/applications/{applicationID}/result [get]
func (h *Handler) HandleGetResult(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	id, err := idParam(c, "applicationID")
	if err != nil {
		return h.fail(c, l, "Invalid application id", err)
	}
	view, err := h.service.Result(c.Context(), id)
	if err != nil {
		return h.fail(c, l, "Result lookup failed", err)
	}
	return c.JSON(view)
}

// HandleGetHistory returns every verification result of an application, newest first.
// @Summary Get Application History
// @Tags verification
// @Produce json
// @Param applicationID path int true "Application ID"
// @Success 200 {array} ResultView "Results"
// @Failure 404 {object} map[string]string "Not Found"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /verification/applications/{applicationID}/history [get]
func (h *Handler) HandleGetHistory(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	id, err := idParam(c, "applicationID")
	if err != nil {
		return h.fail(c, l, "Invalid application id", err)
	}
	views, err := h.service.History(c.Context(), id)
	if err != nil {
		return h.fail(c, l, "History lookup failed", err)
	}
	return c.JSON(views)
}

// HandleReset returns an application to pending.
// @Summary Reset Application
// @Description Returns an application to pending so that the next reconciliation of its team re-verifies it. Existing results are kept as history.
// @Tags verification
// @Produce json
// @Param applicationID path int true "Application ID"
// @Success 200 {object} map[string]string "Reset"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /verification/applications/{applicationID}/reset [post]
func (h *Handler) HandleReset(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	id, err := idParam(c, "applicationID")
	if err != nil {
		return h.fail(c, l, "Invalid application id", err)
	}
	if err := h.service.Reset(c.Context(), id); err != nil {
		return h.fail(c, l, "Reset failed", err)
	}
	return c.JSON(fiber.Map{"status": string(store.StatusPending)})
}

// HandleActiveTournament returns the active tournament.
// @Summary Get Active Tournament
// @Tags verification
// @Produce json
// @Success 200 {object} store.Tournament "Tournament"
// @Failure 404 {object} map[string]string "No Active Tournament"
// @Router /verification/tournaments/active [get]
func (h *Handler) HandleActiveTournament(c *fiber.Ctx) error {
	t, err := h.service.ActiveTournament(c.Context())
	if err != nil {
		return h.fail(c, logger.WithRayID(h.service.logger, c), "Active tournament lookup failed", err)
	}
	return c.JSON(t)
}

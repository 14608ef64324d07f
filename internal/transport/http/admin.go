package httptransport

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"aircrew/internal/platform/middleware"
	rosterservice "aircrew/internal/roster/service"
	"aircrew/internal/sweep"
	derrors "aircrew/pkg/domain-errors"
	"aircrew/pkg/platform/httputil"
	"aircrew/pkg/requestcontext"
)

// AdminHandler exposes the operator API: roster inspection, record removal,
// and on-demand sweeps.
type AdminHandler struct {
	roster    *rosterservice.Service
	sweeper   *sweep.Service
	validator middleware.TokenValidator
	logger    *slog.Logger
}

func NewAdmin(roster *rosterservice.Service, sweeper *sweep.Service, validator middleware.TokenValidator, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		roster:    roster,
		sweeper:   sweeper,
		validator: validator,
		logger:    logger,
	}
}

// Register mounts the admin endpoints behind token auth.
func (h *AdminHandler) Register(r chi.Router) {
	admin := chi.NewRouter()
	admin.Use(middleware.RequireAuth(h.validator, h.logger))
	admin.Get("/persons", h.HandleListPersons)
	admin.Get("/persons/{id}", h.HandleGetProfile)
	admin.Delete("/persons/{id}", h.HandleDeletePerson)
	admin.Post("/sweep", h.HandleSweep)

	r.Mount("/admin", admin)
}

// HandleListPersons handles GET /admin/persons.
func (h *AdminHandler) HandleListPersons(w http.ResponseWriter, r *http.Request) {
	persons, err := h.roster.ListPersons(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"persons": persons,
		"count":   len(persons),
	})
}

// HandleGetProfile handles GET /admin/persons/{id}.
func (h *AdminHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := personID(w, r)
	if !ok {
		return
	}
	profile, err := h.roster.Profile(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}

// HandleDeletePerson handles DELETE /admin/persons/{id}.
func (h *AdminHandler) HandleDeletePerson(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := personID(w, r)
	if !ok {
		return
	}
	if err := h.roster.DeletePerson(ctx, id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "person deleted by operator",
		"request_id", requestcontext.RequestID(ctx),
		"person_id", id,
	)
	w.WriteHeader(http.StatusNoContent)
}

// HandleSweep handles POST /admin/sweep: one synchronous pass, report in
// the response.
func (h *AdminHandler) HandleSweep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	report, err := h.sweeper.RunOnce(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "manual sweep failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, derrors.Wrap(err, derrors.CodeInternal, "sweep failed"))
		return
	}

	h.logger.InfoContext(ctx, "manual sweep completed",
		"request_id", requestcontext.RequestID(ctx),
		"persons_checked", report.PersonsChecked,
		"flagged", report.Flagged,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, report)
}

func personID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeValidation, "person id must be an integer"))
		return 0, false
	}
	return id, true
}

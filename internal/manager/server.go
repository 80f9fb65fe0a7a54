// Package manager implements the Subscription Manager Service (spec.md
// §4.C): a thin HTTP facade over internal/store performing no business
// logic beyond encoding and status-code mapping.
//
// Grounded on the Subscriptions/Subscription twisted.web Resources in
// _examples/original_source/lae_automation/subscription_manager.py,
// translated from Twisted's Resource tree into a chi.Router, matching
// the handler idiom of wisbric/nightowl's pkg/apikey/handler.go.
package manager

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-logr/logr"

	"github.com/leastauthority/gridconverge/internal/httputil"
	"github.com/leastauthority/gridconverge/internal/subscription"
)

// Store is the subset of internal/store.Store the handlers depend on.
type Store interface {
	ListIdentifiers() ([]string, error)
	Get(id string) (subscription.Record, error)
	Create(id string, details subscription.PartialDetails) (subscription.Record, error)
	Deactivate(id string) error
}

// Handler serves the versioned Subscription Manager HTTP API.
type Handler struct {
	store     Store
	statePath string
	log       logr.Logger
}

// NewHandler builds a Handler over the given Store. statePath is the
// same directory the Store was opened on; /readyz stats it directly
// rather than going through the Store interface, so readiness reflects
// the state of the filesystem even if the Store has cached otherwise.
func NewHandler(store Store, statePath string, log logr.Logger) *Handler {
	return &Handler{store: store, statePath: statePath, log: log}
}

// Routes mounts the Subscription Manager API under its /v1 prefix plus
// the operational /healthz and /readyz endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", h.handleHealthz)
	r.Get("/readyz", h.handleReadyz)

	r.Get("/v1/subscriptions", h.handleList)
	r.Get("/v1/subscriptions/{id}", h.handleGet)
	r.Put("/v1/subscriptions/{id}", h.handleCreate)
	r.Delete("/v1/subscriptions/{id}", h.handleDeactivate)

	return r
}

func (h *Handler) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	httputil.Respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReadyz reports readiness by statting the state-path directory
// (SPEC_FULL.md §4.C): a process is not ready to serve if its backing
// store directory is missing or has become unreadable.
func (h *Handler) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	info, err := os.Stat(h.statePath)
	if err != nil {
		h.log.Error(err, "state path not statable", "state_path", h.statePath)
		httputil.RespondError(w, http.StatusServiceUnavailable)
		return
	}
	if !info.IsDir() {
		h.log.Error(fmt.Errorf("state path %q is not a directory", h.statePath), "readiness check failed")
		httputil.RespondError(w, http.StatusServiceUnavailable)
		return
	}

	httputil.Respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

// subscriptionListResponse is the {subscriptions: [...]} envelope
// returned by GET /v1/subscriptions (spec.md §4.C).
type subscriptionListResponse struct {
	Subscriptions []subscription.Record `json:"subscriptions"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ids, err := h.store.ListIdentifiers()
	if err != nil {
		h.log.Error(err, "listing subscription identifiers")
		httputil.RespondError(w, http.StatusInternalServerError)
		return
	}

	records := make([]subscription.Record, 0, len(ids))
	for _, id := range ids {
		rec, err := h.store.Get(id)
		if err != nil {
			h.log.Error(err, "reading listed subscription", "id", id)
			httputil.RespondError(w, http.StatusInternalServerError)
			return
		}
		records = append(records, rec)
	}

	httputil.Respond(w, http.StatusOK, subscriptionListResponse{Subscriptions: records})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.log.Error(err, "decoding subscription id")
		httputil.RespondError(w, http.StatusBadRequest)
		return
	}

	rec, err := h.store.Get(id)
	if err != nil {
		if errors.Is(err, subscription.ErrNotFound) {
			httputil.RespondError(w, http.StatusNotFound)
			return
		}
		h.log.Error(err, "reading subscription", "id", id)
		httputil.RespondError(w, http.StatusInternalServerError)
		return
	}

	httputil.Respond(w, http.StatusOK, rec)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.log.Error(err, "decoding subscription id")
		httputil.RespondError(w, http.StatusBadRequest)
		return
	}

	var details subscription.PartialDetails
	if err := httputil.Decode(r, &details); err != nil {
		h.log.Error(err, "decoding request body", "id", id)
		httputil.RespondError(w, http.StatusBadRequest)
		return
	}

	if _, err := h.store.Create(id, details); err != nil {
		switch {
		case errors.Is(err, subscription.ErrAlreadyExists):
			httputil.RespondError(w, http.StatusConflict)
		case errors.Is(err, subscription.ErrInvalidDetails):
			h.log.Error(err, "rejecting invalid subscription details", "id", id)
			httputil.RespondError(w, http.StatusBadRequest)
		case errors.Is(err, subscription.ErrExhausted):
			h.log.Error(err, "port space exhausted")
			httputil.RespondError(w, http.StatusInternalServerError)
		default:
			h.log.Error(err, "creating subscription", "id", id)
			httputil.RespondError(w, http.StatusInternalServerError)
		}
		return
	}

	httputil.Respond(w, http.StatusCreated, nil)
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.log.Error(err, "decoding subscription id")
		httputil.RespondError(w, http.StatusBadRequest)
		return
	}

	if err := h.store.Deactivate(id); err != nil {
		if errors.Is(err, subscription.ErrNotFound) {
			httputil.RespondError(w, http.StatusNotFound)
			return
		}
		h.log.Error(err, "deactivating subscription", "id", id)
		httputil.RespondError(w, http.StatusInternalServerError)
		return
	}

	httputil.Respond(w, http.StatusNoContent, nil)
}

// pathID extracts and URL-decodes the {id} path parameter, per spec.md
// §4.C's "<id> is URL-encoded".
func pathID(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "id")
	return url.PathUnescape(raw)
}

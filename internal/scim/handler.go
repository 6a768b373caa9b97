// Package scim is the thin provider-facing HTTP facade. It adapts the SCIM
// wire format onto the provisioning service operations: JSON mapping, filter
// parsing and status mapping only — no business logic lives here.
package scim

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/go-hclog"

	"github.com/isometry/scimgate/internal/filter"
	"github.com/isometry/scimgate/internal/model"
	"github.com/isometry/scimgate/internal/provisioning"
)

// Handler serves the SCIM endpoints.
type Handler struct {
	svc *provisioning.Service
	log hclog.Logger
}

// NewHandler returns a handler backed by svc.
func NewHandler(svc *provisioning.Service, log hclog.Logger) *Handler {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Handler{svc: svc, log: log}
}

// Routes mounts the SCIM resource endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/Users", func(r chi.Router) {
		r.Post("/", h.createUser)
		r.Get("/", h.listUsers)
		r.Get("/{id}", h.getUser)
		r.Put("/{id}", h.updateUser)
	})
	r.Route("/Groups", func(r chi.Router) {
		r.Post("/", h.createGroup)
		r.Get("/", h.listGroups)
		r.Get("/{id}", h.getGroup)
		r.Put("/{id}", h.updateGroup)
		r.Delete("/{id}", h.deleteGroup)
	})
	return r
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var res userResource
	if err := json.NewDecoder(r.Body).Decode(&res); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	user, err := h.svc.CreateUser(r.Context(), toModelUser(&res))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toWireUser(user))
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toWireUser(user))
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	var res userResource
	if err := json.NewDecoder(r.Body).Decode(&res); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	user, err := h.svc.UpdateUser(r.Context(), chi.URLParam(r, "id"), toModelUser(&res))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toWireUser(user))
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	page := parsePagination(r)

	var parsed *filter.Filter
	if raw := r.URL.Query().Get("filter"); raw != "" {
		f, err := ParseFilter(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err)
			return
		}
		parsed = f
	}

	result, err := h.svc.ListUsers(r.Context(), page, parsed)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	resources := make([]userResource, 0, len(result.Users))
	for _, user := range result.Users {
		resources = append(resources, toWireUser(user))
	}
	h.writeJSON(w, http.StatusOK, listResponse{
		Schemas:      []string{coreUserSchema},
		TotalResults: result.TotalResults,
		StartIndex:   result.StartIndex,
		Resources:    resources,
	})
}

func (h *Handler) createGroup(w http.ResponseWriter, r *http.Request) {
	var res groupResource
	if err := json.NewDecoder(r.Body).Decode(&res); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	group, err := h.svc.CreateGroup(r.Context(), toModelGroup(&res))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toWireGroup(group))
}

func (h *Handler) getGroup(w http.ResponseWriter, r *http.Request) {
	group, err := h.svc.GetGroup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toWireGroup(group))
}

func (h *Handler) updateGroup(w http.ResponseWriter, r *http.Request) {
	var res groupResource
	if err := json.NewDecoder(r.Body).Decode(&res); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	group, err := h.svc.UpdateGroup(r.Context(), chi.URLParam(r, "id"), toModelGroup(&res))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toWireGroup(group))
}

func (h *Handler) listGroups(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListGroups(r.Context(), parsePagination(r))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	resources := make([]groupResource, 0, len(result.Groups))
	for _, group := range result.Groups {
		resources = append(resources, toWireGroup(group))
	}
	h.writeJSON(w, http.StatusOK, listResponse{
		Schemas:      []string{coreGroupSchema},
		TotalResults: result.TotalResults,
		StartIndex:   result.StartIndex,
		Resources:    resources,
	})
}

func (h *Handler) deleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteGroup(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parsePagination(r *http.Request) provisioning.Pagination {
	page := provisioning.Pagination{StartIndex: 1}
	if v := r.URL.Query().Get("startIndex"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			page.StartIndex = n
		}
	}
	if v := r.URL.Query().Get("count"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			page.Count = n
		}
	}
	return page
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var notFound *model.NotFoundError
	var duplicate *model.DuplicateError
	var mgmt *model.ManagementError

	switch {
	case errors.As(err, &notFound):
		h.writeError(w, http.StatusNotFound, err)
	case errors.As(err, &duplicate):
		h.writeError(w, http.StatusConflict, err)
	case errors.As(err, &mgmt):
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{
			Errors: []errorDetail{{
				Description: mgmt.Message,
				Code:        mgmt.Code,
				HelpURL:     mgmt.HelpURL,
			}},
		})
	default:
		h.writeError(w, http.StatusInternalServerError, err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, errorResponse{
		Errors: []errorDetail{{
			Description: err.Error(),
			Code:        strconv.Itoa(status),
		}},
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("response encoding failed", "error", err)
	}
}

package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/songqueue-backend/api/responses"
	"github.com/angelmondragon/songqueue-backend/api/validators"
	"github.com/angelmondragon/songqueue-backend/internal/queue"
	pkgerrors "github.com/angelmondragon/songqueue-backend/pkg/errors"
	"github.com/angelmondragon/songqueue-backend/pkg/logger"
)

// ReorderRequestsBody lists request ids in their new queue position.
type ReorderRequestsBody struct {
	Order []string `json:"order" validate:"required"`
}

// AdminListRequests returns every request, pending first, for the operator.
func AdminListRequests(svc queue.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "queue service unavailable"))
			return
		}

		requests, err := svc.ListAdmin(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, requests)
	}
}

// AdminGetRequest returns one request by id, played or not.
func AdminGetRequest(svc queue.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "queue service unavailable"))
			return
		}

		id, err := requestIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, request)
	}
}

// AdminMarkRequestPlayed flags a request as played.
func AdminMarkRequestPlayed(svc queue.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "queue service unavailable"))
			return
		}

		id, err := requestIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		played, err := svc.MarkPlayed(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, played)
	}
}

// AdminReorderRequests assigns queue positions from the submitted id order.
func AdminReorderRequests(svc queue.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "queue service unavailable"))
			return
		}

		var body ReorderRequestsBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Reorder(r.Context(), body.Order); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"success": true})
	}
}

// AdminClearPlayedRequests purges played requests and reports how many went.
func AdminClearPlayedRequests(svc queue.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "queue service unavailable"))
			return
		}

		removed, err := svc.ClearPlayed(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"removed": removed})
	}
}

func requestIDParam(r *http.Request) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, "requestId"))
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "request id is required")
	}
	return id, nil
}

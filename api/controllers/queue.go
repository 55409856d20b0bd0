package controllers

import (
	"net/http"

	"github.com/angelmondragon/songqueue-backend/api/responses"
	"github.com/angelmondragon/songqueue-backend/api/validators"
	"github.com/angelmondragon/songqueue-backend/internal/queue"
	pkgerrors "github.com/angelmondragon/songqueue-backend/pkg/errors"
	"github.com/angelmondragon/songqueue-backend/pkg/logger"
)

const (
	maxRequesterNameLen = 80
	maxSongTitleLen     = 200
	maxReferenceLen     = 128
)

// SubmitSongRequestBody is the public payload sent after an attendee pays.
type SubmitSongRequestBody struct {
	Name      string `json:"name" validate:"max=80"`
	SongTitle string `json:"songTitle" validate:"required,notblank,max=200"`
	Reference string `json:"reference" validate:"required,notblank,max=128"`
}

// SubmitSongRequest queues a paid song request.
func SubmitSongRequest(svc queue.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "queue service unavailable"))
			return
		}

		var body SubmitSongRequestBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Submit(r.Context(), queue.SubmitInput{
			Name:             validators.SanitizeString(body.Name, maxRequesterNameLen),
			SongTitle:        validators.SanitizeString(body.SongTitle, maxSongTitleLen),
			PaymentReference: validators.SanitizeString(body.Reference, maxReferenceLen),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// ListPublicQueue returns the pending requests an attendee is allowed to see.
func ListPublicQueue(svc queue.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "queue service unavailable"))
			return
		}

		entries, err := svc.ListPublic(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}

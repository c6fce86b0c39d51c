package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/domain/enums"
	"github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/domain/model"
	authsvc "github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/services/auth"
	sessionsvc "github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/services/session"
	"github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/transport/http/dto"
	httperrors "github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/transport/http/errors"
)

type SessionLister interface {
	ListRecent(ctx context.Context, userID int64, limit int) ([]model.Session, error)
}

type SessionHandler struct {
	store      SessionLister
	terminator *sessionsvc.Terminator
	listLimit  int
}

func NewSessionHandler(store SessionLister, terminator *sessionsvc.Terminator, listLimit int) *SessionHandler {
	if listLimit <= 0 {
		listLimit = 10
	}

	return &SessionHandler{
		store:      store,
		terminator: terminator,
		listLimit:  listLimit,
	}
}

// List returns the caller's sessions, most recently active first, capped
// at the configured limit.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeInternal(w, "session store is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}

	sessions, err := h.store.ListRecent(r.Context(), identity.UserID, h.listLimit)
	if err != nil {
		handleSessionError(w, err)
		return
	}

	out := make([]dto.SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, dto.NewSessionResponse(session, identity.SessionID))
	}

	httperrors.WriteSuccess(w, "sessions retrieved", dto.SessionListData{Sessions: out})
}

// Delete terminates one of the caller's sessions by id. A session owned
// by someone else is indistinguishable from a missing one.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.terminator == nil {
		writeInternal(w, "session service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}

	sessionID := chi.URLParam(r, "id")
	if err := h.terminator.Terminate(r.Context(), sessionID, identity.UserID, enums.TerminationManual); err != nil {
		handleSessionError(w, err)
		return
	}

	httperrors.WriteSuccess(w, "session terminated", nil)
}

// AdminTerminate lets an admin end any user's session with reason admin.
func (h *SessionHandler) AdminTerminate(w http.ResponseWriter, r *http.Request) {
	if h.terminator == nil {
		writeInternal(w, "session service is unavailable")
		return
	}

	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID <= 0 {
		writeBadRequest(w, "invalid user id")
		return
	}

	sessionID := chi.URLParam(r, "id")
	if err := h.terminator.Terminate(r.Context(), sessionID, userID, enums.TerminationAdmin); err != nil {
		handleSessionError(w, err)
		return
	}

	httperrors.WriteSuccess(w, "session terminated", nil)
}

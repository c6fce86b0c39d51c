package handlers

import (
	"net/http"

	httperrors "github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/transport/http/errors"
)

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Get(w http.ResponseWriter, _ *http.Request) {
	httperrors.WriteSuccess(w, "ok", nil)
}

package user

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/storefront/internal/transport"
	"github.com/frahmantamala/storefront/pkg/logger"
	"github.com/go-chi/chi"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// ListUsers handles GET /users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	resp, err := h.Service.ListUsers(r.Context())
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

// UpdatePermissions handles PUT /users/{id}/permissions
func (h *Handler) UpdatePermissions(w http.ResponseWriter, r *http.Request) {
	var dto UpdatePermissionsDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}

	u, err := h.Service.UpdatePermissions(r.Context(), chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

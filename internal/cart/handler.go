package cart

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

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	resp, err := h.Service.GetCart(r.Context())
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var dto AddToCartDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}

	line, err := h.Service.AddToCart(r.Context(), dto)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, line)
}

func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	line, err := h.Service.RemoveFromCart(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, line)
}

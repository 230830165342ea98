package auth

import (
	"log/slog"
	"net/http"

	errs "github.com/frahmantamala/storefront/internal"
	"github.com/frahmantamala/storefront/internal/transport"
	"github.com/frahmantamala/storefront/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Reset   ResetServiceAPI
	Cookie  SessionCookie
}

func NewHandler(svc ServiceAPI, reset ResetServiceAPI, cookie SessionCookie) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
		Reset:       reset,
		Cookie:      cookie,
	}
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var dto SignupDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}

	user, token, err := h.Service.Signup(r.Context(), dto)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.Cookie.Set(w, token)
	h.WriteJSON(w, http.StatusCreated, user)
}

func (h *Handler) Signin(w http.ResponseWriter, r *http.Request) {
	var dto SigninDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}

	user, token, err := h.Service.Signin(r.Context(), dto)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.Cookie.Set(w, token)
	h.WriteJSON(w, http.StatusOK, user)
}

// Signout always succeeds, signed in or not.
func (h *Handler) Signout(w http.ResponseWriter, r *http.Request) {
	h.Service.Signout(r.Context())
	h.Cookie.Clear(w)
	h.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Goodbye!"})
}

func (h *Handler) RequestReset(w http.ResponseWriter, r *http.Request) {
	var dto RequestResetDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}

	resp, err := h.Reset.RequestReset(r.Context(), dto)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var dto ResetPasswordDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}

	user, token, err := h.Reset.CompleteReset(r.Context(), dto)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.Cookie.Set(w, token)
	h.WriteJSON(w, http.StatusOK, user)
}

// Me reports the current principal, with a null user for anonymous callers.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	h.WriteJSON(w, http.StatusOK, PrincipalResponse{User: user})
}

// SessionMiddleware resolves the session token, from the cookie or a bearer header,
// into the request principal. It never rejects a request on its own: a bad token
// leaves the request anonymous and is reported by any gated operation it reaches.
func (h *Handler) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.Cookie.Read(r)
		fromCookie := token != ""
		if !fromCookie {
			token = h.ExtractTokenFromHeader(r)
		}
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := h.Service.CurrentPrincipal(r.Context(), token)
		if err != nil {
			if !errs.IsType(err, errs.ErrorTypeInvalidToken) {
				h.HandleError(w, r, err)
				return
			}
			h.Logger.DebugContext(r.Context(), "session rejected", "error", err)
			if fromCookie {
				h.Cookie.Clear(w)
			}
			next.ServeHTTP(w, r.WithContext(contextWithSessionError(r.Context(), err)))
			return
		}
		if user == nil {
			if fromCookie {
				h.Cookie.Clear(w)
			}
			next.ServeHTTP(w, r)
			return
		}

		ctx := ContextWithUser(r.Context(), user)
		ctx = logger.With(ctx, "user_id", user.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireUser rejects anonymous requests before they reach next.
func (h *Handler) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			if err := sessionErrorFromContext(r.Context()); err != nil {
				h.HandleError(w, r, err)
				return
			}
			h.HandleError(w, r, errs.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}

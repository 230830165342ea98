package auth_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	errs "github.com/frahmantamala/storefront/internal"
	"github.com/frahmantamala/storefront/internal/auth"
	"github.com/frahmantamala/storefront/internal/core/permission"
	"github.com/frahmantamala/storefront/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

var _ = Describe("Auth Handler", func() {
	var (
		repo    *MockRepository
		tokens  *auth.JWTTokenGenerator
		handler *auth.Handler
		router  *chi.Mux
	)

	BeforeEach(func() {
		repo = NewMockRepository()
		hasher := auth.NewBcryptHasher(bcrypt.MinCost)
		tokens = auth.NewJWTTokenGenerator("test-secret", time.Hour, time.Hour)
		publisher := &recordingPublisher{}

		service := auth.NewService(repo, hasher, tokens, publisher, quietLogger())
		reset := auth.NewResetService(repo, hasher, tokens, &recordingNotifier{}, publisher, auth.ResetConfig{
			FrontendURL: "http://localhost:7777",
		}, quietLogger())

		handler = auth.NewHandler(service, reset, auth.DefaultSessionCookie())
		handler.BaseHandler = transport.NewBaseHandler(quietLogger())

		gate := auth.NewGate(quietLogger())
		base := handler.BaseHandler

		router = chi.NewRouter()
		router.Use(handler.SessionMiddleware)
		router.Post("/signup", handler.Signup)
		router.Post("/signin", handler.Signin)
		router.Post("/signout", handler.Signout)
		router.Post("/request-reset", handler.RequestReset)
		router.Post("/reset-password", handler.ResetPassword)
		router.Get("/me", handler.Me)
		router.Delete("/admin-only", func(w http.ResponseWriter, r *http.Request) {
			if _, err := gate.Authorize(r.Context(), auth.Requirement{
				Action: "adminOnly",
				AnyOf:  []permission.Permission{permission.Admin},
			}); err != nil {
				base.HandleError(w, r, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})

	do := func(method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		for _, c := range cookies {
			req.AddCookie(c)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	sessionCookie := func(w *httptest.ResponseRecorder) *http.Cookie {
		for _, c := range w.Result().Cookies() {
			if c.Name == "token" {
				return c
			}
		}
		return nil
	}

	errorBody := func(w *httptest.ResponseRecorder) map[string]interface{} {
		var resp struct {
			Error map[string]interface{} `json:"error"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		return resp.Error
	}

	signupBody := map[string]string{"email": "wes@example.com", "name": "Wes", "password": "dogs-are-neat"}

	It("should set an HttpOnly year-long cookie on signup", func() {
		w := do(http.MethodPost, "/signup", signupBody)
		Expect(w.Code).To(Equal(http.StatusCreated))

		c := sessionCookie(w)
		Expect(c).NotTo(BeNil())
		Expect(c.HttpOnly).To(BeTrue())
		Expect(c.MaxAge).To(Equal(31536000))
		Expect(c.Path).To(Equal("/"))

		var user map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&user)).To(Succeed())
		Expect(user["email"]).To(Equal("wes@example.com"))
		Expect(user).NotTo(HaveKey("PasswordHash"))
		Expect(user).NotTo(HaveKey("password_hash"))
	})

	It("should resolve the principal from the cookie", func() {
		c := sessionCookie(do(http.MethodPost, "/signup", signupBody))

		w := do(http.MethodGet, "/me", nil, c)
		Expect(w.Code).To(Equal(http.StatusOK))

		var resp map[string]map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp["user"]["email"]).To(Equal("wes@example.com"))
	})

	It("should resolve the principal from a bearer header", func() {
		c := sessionCookie(do(http.MethodPost, "/signup", signupBody))

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+c.Value)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		var resp map[string]map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp["user"]["email"]).To(Equal("wes@example.com"))
	})

	It("should report a null user for anonymous callers", func() {
		w := do(http.MethodGet, "/me", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(MatchJSON(`{"user": null}`))
	})

	It("should map a duplicate signup to 400", func() {
		do(http.MethodPost, "/signup", signupBody)
		w := do(http.MethodPost, "/signup", signupBody)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(errorBody(w)["code"]).To(Equal(string(errs.ErrCodeEmailTaken)))
	})

	It("should reject malformed JSON", func() {
		req := httptest.NewRequest(http.MethodPost, "/signup", bytes.NewBufferString("{"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("should distinguish signin failures", func() {
		do(http.MethodPost, "/signup", signupBody)

		w := do(http.MethodPost, "/signin", map[string]string{"email": "nobody@example.com", "password": "dogs-are-neat"})
		Expect(w.Code).To(Equal(http.StatusNotFound))

		w = do(http.MethodPost, "/signin", map[string]string{"email": "wes@example.com", "password": "wrong-password"})
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(errorBody(w)["type"]).To(Equal(string(errs.ErrorTypeInvalidCredentials)))

		w = do(http.MethodPost, "/signin", map[string]string{"email": "WES@example.com", "password": "dogs-are-neat"})
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(sessionCookie(w)).NotTo(BeNil())
	})

	It("should clear the cookie on signout, signed in or not", func() {
		w := do(http.MethodPost, "/signout", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(MatchJSON(`{"message": "Goodbye!"}`))
		c := sessionCookie(w)
		Expect(c).NotTo(BeNil())
		Expect(c.MaxAge).To(BeNumerically("<", 0))
	})

	It("should treat a forged cookie as anonymous on public routes", func() {
		forged := &http.Cookie{Name: "token", Value: "forged"}

		w := do(http.MethodGet, "/me", nil, forged)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(MatchJSON(`{"user": null}`))
		Expect(sessionCookie(w).MaxAge).To(BeNumerically("<", 0))
	})

	It("should report a forged cookie on gated routes", func() {
		w := do(http.MethodDelete, "/admin-only", nil, &http.Cookie{Name: "token", Value: "forged"})
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(errorBody(w)["type"]).To(Equal(string(errs.ErrorTypeInvalidToken)))
	})

	It("should separate unauthenticated from forbidden", func() {
		w := do(http.MethodDelete, "/admin-only", nil)
		Expect(w.Code).To(Equal(http.StatusUnauthorized))

		c := sessionCookie(do(http.MethodPost, "/signup", signupBody))
		w = do(http.MethodDelete, "/admin-only", nil, c)
		Expect(w.Code).To(Equal(http.StatusForbidden))
	})

	It("should run the reset handshake end to end", func() {
		do(http.MethodPost, "/signup", signupBody)

		w := do(http.MethodPost, "/request-reset", map[string]string{"email": "wes@example.com"})
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(MatchJSON(`{"message": "Thanks!"}`))

		var token string
		for _, u := range repo.users {
			token = *u.ResetToken
		}

		w = do(http.MethodPost, "/reset-password", map[string]string{
			"reset_token": token, "password": "new-password", "confirm_password": "nope-password",
		})
		Expect(w.Code).To(Equal(http.StatusBadRequest))

		w = do(http.MethodPost, "/reset-password", map[string]string{
			"reset_token": token, "password": "new-password", "confirm_password": "new-password",
		})
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(sessionCookie(w)).NotTo(BeNil())

		w = do(http.MethodPost, "/reset-password", map[string]string{
			"reset_token": token, "password": "new-password", "confirm_password": "new-password",
		})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(errorBody(w)["type"]).To(Equal(string(errs.ErrorTypeInvalidOrExpiredToken)))
	})
})

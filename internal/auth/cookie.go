package auth

import (
	"net/http"
	"time"
)

// SessionCookie describes how the session token travels between browser and server.
type SessionCookie struct {
	Name     string
	MaxAge   time.Duration
	Secure   bool
	SameSite http.SameSite
	Domain   string
}

func DefaultSessionCookie() SessionCookie {
	return SessionCookie{
		Name:     "token",
		MaxAge:   365 * 24 * time.Hour,
		SameSite: http.SameSiteLaxMode,
	}
}

// Set attaches token to the response as an HttpOnly cookie.
func (c SessionCookie) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, c.cookie(token, int(c.MaxAge/time.Second)))
}

// Clear instructs the client to drop the session cookie.
func (c SessionCookie) Clear(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie("", -1))
}

// Read returns the session token carried by r, or "" when there is none.
func (c SessionCookie) Read(r *http.Request) string {
	ck, err := r.Cookie(c.Name)
	if err != nil {
		return ""
	}
	return ck.Value
}

func (c SessionCookie) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	}
}

package server

import (
	"crypto/subtle"
	"net/http"
	"time"
)

// authStateCookieName binds the state issued by /auth to the browser that will present it on the callback
const authStateCookieName = "oauth_state"

func (s *Server) SetAuthStateCookie(w http.ResponseWriter, r *http.Request, state string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = int(s.config.StateTTL.Seconds())
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authStateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode, // Lax: sent on the provider's top-level GET redirect back to us
		MaxAge:   maxAge,
	})
}

func (s *Server) ClearAuthStateCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     authStateCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// stateMatchesCookie reports whether the request carries a state cookie equal to state.
func stateMatchesCookie(r *http.Request, state string) bool {
	cookie, err := r.Cookie(authStateCookieName)
	if err != nil || cookie.Value == "" || state == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(state)) == 1
}

package server

import (
	"net/http"

	apperrors "github.com/jrsteele09/go-google-login/internal/errors"
	"github.com/jrsteele09/go-google-login/loginflow"
	"github.com/rs/zerolog"
)

const contentTypeText = "text/plain; charset=utf-8"

// BeginAuthHandler starts a login by redirecting the user agent to the provider.
func (s *Server) BeginAuthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		redirect, err := s.flow.Begin(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}

		s.SetAuthStateCookie(w, r, redirect.State, redirect.ExpiresAt)
		http.Redirect(w, r, redirect.URL, http.StatusFound)
	}
}

// AuthCallbackHandler completes a login when the provider redirects back with a code.
func (s *Server) AuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		params := loginflow.CallbackParams{
			Code:             query.Get("code"),
			State:            query.Get("state"),
			Error:            query.Get("error"),
			ErrorDescription: query.Get("error_description"),
		}

		// The state is single use whatever happens next
		s.ClearAuthStateCookie(w, r)

		if !stateMatchesCookie(r, params.State) {
			writeError(w, r, apperrors.Wrapf(apperrors.ErrInvalidState, "state does not match the browser that started the login"))
			return
		}

		// TODO: issue an application session for the profile once there is a user store to attach it to.
		if _, err := s.flow.Callback(r.Context(), params); err != nil {
			writeError(w, r, err)
			return
		}

		w.Header().Set("Content-Type", contentTypeText)
		_, _ = w.Write([]byte("login successful"))
	}
}

// statusForError maps the flow's error kinds onto HTTP statuses.
func statusForError(err error) int {
	switch {
	case apperrors.Is(err, apperrors.ErrTimeout):
		return http.StatusGatewayTimeout
	case apperrors.Is(err, apperrors.ErrInvalidState),
		apperrors.Is(err, apperrors.ErrInvalidRequest),
		apperrors.Is(err, apperrors.ErrAuthorizationDenied):
		return http.StatusBadRequest
	case apperrors.Is(err, apperrors.ErrTokenExchange),
		apperrors.Is(err, apperrors.ErrProfileFetch),
		apperrors.Is(err, apperrors.ErrDeserialization):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage is what the user agent sees. Upstream detail stays in the log.
func publicMessage(err error, status int) string {
	switch {
	case apperrors.Is(err, apperrors.ErrInvalidState):
		return "Login failed: invalid or expired state, please start again"
	case apperrors.Is(err, apperrors.ErrAuthorizationDenied):
		return "Login failed: authorization was denied"
	case apperrors.Is(err, apperrors.ErrInvalidRequest):
		return "Login failed: missing code parameter"
	}
	return http.StatusText(status)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)

	logger := zerolog.Ctx(r.Context())
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(err).Int("status", status).Msg("Login request failed")

	http.Error(w, publicMessage(err, status), status)
}

package http

import (
	"net/http"
	"time"

	"fintrack/internal/auth"
)

const sessionCookie = "fintrack_session"

// setSessionCookie installs the session token for subsequent requests.
func setSessionCookie(w http.ResponseWriter, sess auth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// sessionToken returns the raw token from the request cookie, if any.
func sessionToken(r *http.Request) string {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

// currentUser restores the session for the request, if one exists.
func (s *Server) currentUser(r *http.Request) (*auth.User, bool) {
	token := sessionToken(r)
	if token == "" {
		return nil, false
	}
	return s.auth.Restore(token)
}

// requirePageUser restores the session or redirects to the sign-in
// page. The bool reports whether the handler may proceed.
func (s *Server) requirePageUser(w http.ResponseWriter, r *http.Request) (*auth.User, bool) {
	user, ok := s.currentUser(r)
	if !ok {
		http.Redirect(w, r, "/signin", http.StatusSeeOther)
		return nil, false
	}
	return user, true
}

// requireAPIUser restores the session or answers 401.
func (s *Server) requireAPIUser(w http.ResponseWriter, r *http.Request) (*auth.User, bool) {
	user, ok := s.currentUser(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	return user, true
}

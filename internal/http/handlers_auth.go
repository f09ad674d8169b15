package http

import (
	"net/http"
	"strings"

	"fintrack/internal/auth"
	"fintrack/internal/log"
)

// authPageData feeds the sign-in and sign-up templates.
type authPageData struct {
	Error       string
	Email       string
	DisplayName string
}

func (s *Server) handleSignInPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.currentUser(r); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, r, "signin.html", authPageData{})
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.Form.Get("email"))
	password := r.Form.Get("password")

	sess, err := s.auth.SignIn(r.Context(), email, password)
	if err != nil {
		s.logger.WarnContext(r.Context(), "Sign-in rejected",
			log.FieldOperation, log.OpSignIn,
			log.FieldError, err)
		w.WriteHeader(http.StatusUnauthorized)
		s.render(w, r, "signin.html", authPageData{
			Error: auth.CleanError(err),
			Email: email,
		})
		return
	}

	setSessionCookie(w, sess)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleSignUpPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.currentUser(r); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, r, "signup.html", authPageData{})
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	displayName := sanitizeInput(r.Form.Get("name"))
	email := strings.TrimSpace(r.Form.Get("email"))
	password := r.Form.Get("password")

	sess, err := s.auth.SignUp(r.Context(), email, password, displayName)
	if err != nil {
		s.logger.WarnContext(r.Context(), "Sign-up rejected",
			log.FieldOperation, log.OpSignUp,
			log.FieldError, err)
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.render(w, r, "signup.html", authPageData{
			Error:       auth.CleanError(err),
			Email:       email,
			DisplayName: displayName,
		})
		return
	}

	setSessionCookie(w, sess)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if token := sessionToken(r); token != "" {
		s.auth.SignOut(token)
	}
	clearSessionCookie(w)
	http.Redirect(w, r, "/signin", http.StatusSeeOther)
}

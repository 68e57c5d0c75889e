package http

import (
	"errors"
	"net/http"

	"hearth/internal/auth"
	"hearth/internal/core"
	applog "hearth/internal/log"
)

type registerRequest struct {
	FamilyName string `json:"familyName"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User  *core.User `json:"user"`
	Token string     `json:"token"`
}

// handleRegister creates a family and its founding admin in one step.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := s.auth.Register(r.Context(), req.FamilyName, req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailExists):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, auth.ErrWeakPassword),
			errors.Is(err, core.ErrEmptyName),
			errors.Is(err, core.ErrEmptyEmail):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.log.ErrorContext(r.Context(), "registration failed", applog.FieldError, err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	s.log.InfoContext(r.Context(), "family registered", applog.FieldUserID, user.ID, applog.FieldFamilyID, user.FamilyID)
	writeJSON(w, http.StatusCreated, sessionResponse{User: user, Token: token})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		s.log.ErrorContext(r.Context(), "login failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{User: user, Token: token})
}

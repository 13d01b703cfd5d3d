package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/docshare/internal/server/access"
	"github.com/dmitrijs2005/docshare/internal/server/models"
	"github.com/dmitrijs2005/docshare/internal/server/services"
)

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.deps.Users.Register(r.Context(), services.Registration(req))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(u))
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.deps.Users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
		User:      toUserResponse(sess.User),
	})
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request, p *access.Principal) {
	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.deps.Users.UpdateProfile(r.Context(), p.UserID, services.ProfileUpdate(req))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request, p *access.Principal) {
	if err := s.deps.Users.Delete(r.Context(), p.UserID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) createAdmin(w http.ResponseWriter, r *http.Request, p *access.Principal) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.deps.Users.RegisterAdmin(r.Context(), services.Registration(req))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info(r.Context(), "admin account created", "by", p.UserID, "user_id", u.ID)
	writeJSON(w, http.StatusCreated, toUserResponse(u))
}

func (s *Server) setRole(w http.ResponseWriter, r *http.Request, p *access.Principal) {
	var req roleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.deps.Users.SetRole(r.Context(), r.PathValue("userId"), role)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info(r.Context(), "role changed", "by", p.UserID, "user_id", u.ID, "role", u.Role)
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

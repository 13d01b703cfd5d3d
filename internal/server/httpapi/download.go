package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/docshare/internal/server/access"
)

func (s *Server) issueLink(w http.ResponseWriter, r *http.Request, p *access.Principal) {
	var req linkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	link, err := s.deps.Downloads.IssueLink(r.Context(), p, req.FileID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, linkResponse{Link: link.URL, Token: link.Token, ExpiresAt: link.ExpiresAt})
}

// redeem needs no identity; the token in the path is the capability.
func (s *Server) redeem(w http.ResponseWriter, r *http.Request) {
	target, err := s.deps.Downloads.Redeem(r.Context(), r.PathValue("token"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, target, http.StatusFound)
}

package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/docshare/internal/server/access"
)

func (s *Server) addTag(w http.ResponseWriter, r *http.Request, p *access.Principal) {
	var req tagRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.deps.Tags.Add(r.Context(), p, r.PathValue("documentId"), req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentResponse(d))
}

func (s *Server) renameTag(w http.ResponseWriter, r *http.Request, p *access.Principal) {
	var req renameTagRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.deps.Tags.Rename(r.Context(), p, r.PathValue("documentId"), req.OldName, req.NewName)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentResponse(d))
}

func (s *Server) deleteTag(w http.ResponseWriter, r *http.Request, p *access.Principal) {
	d, err := s.deps.Tags.Delete(r.Context(), p, r.PathValue("documentId"), r.PathValue("tag"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentResponse(d))
}

package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/docshare/internal/server/access"
	"github.com/dmitrijs2005/docshare/internal/server/models"
)

func (s *Server) createDocument(w http.ResponseWriter, r *http.Request, p *access.Principal) {
	var req documentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.deps.Documents.Create(r.Context(), p, req.FileName)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDocumentResponse(d))
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request, p *access.Principal) {
	d, err := s.deps.Documents.Get(r.Context(), p, r.PathValue("documentId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentResponse(d))
}

func (s *Server) renameDocument(w http.ResponseWriter, r *http.Request, p *access.Principal) {
	var req documentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.deps.Documents.Rename(r.Context(), p, r.PathValue("documentId"), req.FileName)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentResponse(d))
}

func (s *Server) deleteDocument(w http.ResponseWriter, r *http.Request, p *access.Principal) {
	if err := s.deps.Documents.Delete(r.Context(), p, r.PathValue("documentId")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) uploadURL(w http.ResponseWriter, r *http.Request, p *access.Principal) {
	t, err := s.deps.Documents.UploadURL(r.Context(), p, r.PathValue("documentId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{URL: t.URL, ExpiresAt: t.ExpiresAt})
}

func (s *Server) listPermissions(w http.ResponseWriter, r *http.Request, p *access.Principal) {
	perms, err := s.deps.Sharing.List(r.Context(), p, r.PathValue("documentId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]permissionResponse, 0, len(perms))
	for i := range perms {
		out = append(out, toPermissionResponse(&perms[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) share(w http.ResponseWriter, r *http.Request, p *access.Principal) {
	var req shareRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	level, err := models.ParseLevel(req.Level)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	perm, err := s.deps.Sharing.Share(r.Context(), p, r.PathValue("documentId"), req.Email, level)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPermissionResponse(perm))
}

func (s *Server) unshare(w http.ResponseWriter, r *http.Request, p *access.Principal) {
	var req unshareRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.deps.Sharing.Unshare(r.Context(), p, r.PathValue("documentId"), req.Email); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package httpapi

import "net/http"

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", healthCheck)

	mux.HandleFunc("POST /api/auth/register", s.register)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("PUT /api/auth/profile", s.authenticated(s.updateProfile))
	mux.HandleFunc("DELETE /api/auth/account", s.authenticated(s.deleteAccount))

	mux.HandleFunc("POST /api/admin/users", s.admin(s.createAdmin))
	mux.HandleFunc("PUT /api/admin/users/{userId}/role", s.admin(s.setRole))

	mux.HandleFunc("POST /api/documents", s.authenticated(s.createDocument))
	mux.HandleFunc("GET /api/documents/{documentId}", s.authenticated(s.getDocument))
	mux.HandleFunc("PUT /api/documents/{documentId}", s.authenticated(s.renameDocument))
	mux.HandleFunc("DELETE /api/documents/{documentId}", s.authenticated(s.deleteDocument))
	mux.HandleFunc("POST /api/documents/{documentId}/upload-url", s.authenticated(s.uploadURL))
	mux.HandleFunc("POST /api/documents/{documentId}/tags", s.authenticated(s.addTag))
	mux.HandleFunc("PUT /api/documents/{documentId}/tags", s.authenticated(s.renameTag))
	mux.HandleFunc("DELETE /api/documents/{documentId}/tags/{tag}", s.authenticated(s.deleteTag))

	mux.HandleFunc("GET /api/permissions/{documentId}", s.authenticated(s.listPermissions))
	mux.HandleFunc("POST /api/permissions/share/{documentId}", s.authenticated(s.share))
	mux.HandleFunc("DELETE /api/permissions/share/{documentId}", s.authenticated(s.unshare))

	mux.HandleFunc("POST /api/download/link", s.authenticated(s.issueLink))
	mux.HandleFunc("GET /api/download/{token}", s.redeem)
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/docshare/internal/common"
	"github.com/dmitrijs2005/docshare/internal/logging"
	"github.com/dmitrijs2005/docshare/internal/server/access"
	"github.com/google/uuid"
)

type principalHandler func(w http.ResponseWriter, r *http.Request, p *access.Principal)

// authenticated resolves the bearer token to a principal. Document-level
// checks happen in the services.
func (s *Server) authenticated(next principalHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := access.BearerToken(r.Header.Get(common.AuthorizationHeader))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		p, err := s.deps.Gate.Authenticate(r.Context(), token)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		next(w, r.WithContext(access.WithPrincipal(r.Context(), p)), p)
	}
}

func (s *Server) admin(next principalHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := access.BearerToken(r.Header.Get(common.AuthorizationHeader))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		p, err := s.deps.Gate.RequireAdmin(r.Context(), token)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		next(w, r.WithContext(access.WithPrincipal(r.Context(), p)), p)
	}
}

const requestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)
		r = r.WithContext(logging.ContextWith(r.Context(), "request_id", requestID))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug(r.Context(), "request",
			"method", r.Method,
			"route", routeForLog(r),
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

const downloadPrefix = "/api/download/"

// routeForLog names a request by the pattern it matched. Download paths
// carry a capability token and are never logged verbatim.
func routeForLog(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	if strings.HasPrefix(r.URL.Path, downloadPrefix) {
		return downloadPrefix + "{token}"
	}
	return r.URL.Path
}

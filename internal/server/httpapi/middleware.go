package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/equipview/internal/common"
	"github.com/dmitrijs2005/equipview/internal/logging"
	"github.com/dmitrijs2005/equipview/internal/server/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// accessLog stores a request-scoped logger in the context and writes one
// line per request once it is served.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := s.logger.With("request_id", middleware.GetReqID(r.Context()))
		ctx := logging.WithLogger(r.Context(), log)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(ctx))

		log.Info(ctx, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status(ww),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start))
	})
}

// instrument records request duration by route pattern, not raw path, so
// upload ids do not explode the label set.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		done := s.metrics.StartRequest()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		done(r.Method, route, status(ww))
	})
}

// requireAccount runs the access gate and stores the account in the context.
func (s *Server) requireAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cred, _ := auth.CredentialFromRequest(r)
		a, err := s.gate.Authorize(r.Context(), cred)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		log := logging.FromContext(r.Context(), s.logger).With("account_id", a.ID)
		ctx := logging.WithLogger(auth.WithAccount(r.Context(), a), log)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// accountID returns the id stored by requireAccount.
func accountID(r *http.Request) (string, error) {
	a, ok := auth.AccountFromContext(r.Context())
	if !ok {
		return "", common.ErrUnauthorized
	}
	return a.ID, nil
}

func status(ww middleware.WrapResponseWriter) int {
	if ww.Status() == 0 {
		return http.StatusOK
	}
	return ww.Status()
}

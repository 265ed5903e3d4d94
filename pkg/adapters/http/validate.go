package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
)

func newRouter(doc *openapi3.T) (routers.Router, error) {
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI document: %w", err)
	}
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to build OpenAPI router: %w", err)
	}
	return router, nil
}

// validateRequests rejects requests that do not match their documented
// operation. Undocumented routes pass through.
func (s *Server) validateRequests(router routers.Router) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, params, err := router.FindRoute(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			in := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: params,
				Route:      route,
				Options:    &openapi3filter.Options{AuthenticationFunc: openapi3filter.NoopAuthenticationFunc},
			}
			if err := openapi3filter.ValidateRequest(r.Context(), in); err != nil {
				s.logger.Warn("Request failed validation", "path", r.URL.Path, "err", err)
				if strings.Contains(err.Error(), "is missing") {
					s.fail(w, http.StatusBadRequest, "Missing required fields.")
					return
				}
				s.fail(w, http.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

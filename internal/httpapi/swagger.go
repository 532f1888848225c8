//go:build swagger

package httpapi

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
)

// MountSwagger serves the generated OpenAPI docs under /swagger/.
// Run `swag init -g cmd/diagnosisd/docs.go` before building with -tags=swagger.
func MountSwagger(r chi.Router) {
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
}

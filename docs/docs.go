// Package docs отдает описание API и Swagger UI.
package docs

import (
	_ "embed"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

const SpecPath = "/swagger/doc.json"

//go:embed openapi.json
var openAPISpec []byte

func SpecHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(openAPISpec)
}

// UIHandler обслуживает /swagger/* и загружает описание из SpecPath.
func UIHandler() http.HandlerFunc {
	return httpSwagger.Handler(httpSwagger.URL(SpecPath))
}

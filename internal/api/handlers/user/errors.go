package user

import (
	"net/http"

	"Spillit/internal/api/handlers"
	"Spillit/internal/metrics"
)

func handleServiceError(w http.ResponseWriter, r *http.Request, m *metrics.Metrics, err error) {
	handlers.WriteServiceError(w, r, m, err)
}

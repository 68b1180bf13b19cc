package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	chain := Chain(
		Recovery(h.logger),
		RequestID(h.logger),
		Logging(),
	)

	// Sagas
	mux.Handle("POST /api/v1/sagas", chain(http.HandlerFunc(h.ExecuteSaga)))
	mux.Handle("GET /api/v1/sagas", chain(http.HandlerFunc(h.ListSagas)))
	mux.Handle("POST /api/v1/sagas/retry", chain(http.HandlerFunc(h.RetryStep)))
	mux.Handle("GET /api/v1/sagas/{id}", chain(http.HandlerFunc(h.GetSaga)))

	// Services
	mux.Handle("GET /api/v1/services", chain(http.HandlerFunc(h.ListServices)))
	mux.Handle("POST /api/v1/services/reset", chain(http.HandlerFunc(h.ResetServices)))
}

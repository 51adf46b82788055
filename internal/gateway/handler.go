package gateway

import (
	"net/http"

	"github.com/CoachTrace/CoachTrace/internal/common/logger"
	"github.com/CoachTrace/CoachTrace/internal/common/server"
)

// Handler 网关路由：看板自己算，其余按前缀转发给属主服务。
type Handler struct {
	client     *Client
	aggregator *Aggregator
	log        logger.Logger
}

func NewHandler(client *Client, aggregator *Aggregator, log logger.Logger) *Handler {
	return &Handler{client: client, aggregator: aggregator, log: log}
}

// Register 挂载路由。
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/dashboard", h.dashboard)

	fleet := h.client.Proxy(FleetService, h.log)
	mux.Handle("/api/v1/coaches", fleet)
	mux.Handle("/api/v1/coaches/", fleet)
	mux.Handle("/api/v1/trains", fleet)
	mux.Handle("/api/v1/trains/", fleet)
	mux.Handle("/api/v1/assignments", fleet)
	mux.Handle("/api/v1/assignments/", fleet)
	mux.Handle("/api/v1/alerts", fleet)

	maint := h.client.Proxy(MaintenanceService, h.log)
	mux.Handle("/api/v1/records", maint)
	mux.Handle("/api/v1/records/", maint)
	mux.Handle("/api/v1/risk/", maint)

	identity := h.client.Proxy(IdentityService, h.log)
	mux.Handle("/api/v1/login", identity)
	mux.Handle("/api/v1/engineers", identity)
	mux.Handle("/api/v1/profile", identity)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.aggregator.Dashboard(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		h.log.WithField("error", err.Error()).Warn("dashboard aggregation failed")
		server.WriteError(w, http.StatusBadGateway, "dashboard unavailable")
		return
	}
	server.WriteJSON(w, http.StatusOK, d)
}

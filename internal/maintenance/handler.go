package maintenance

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/CoachTrace/CoachTrace/internal/common/logger"
	"github.com/CoachTrace/CoachTrace/internal/common/server"
	"github.com/CoachTrace/CoachTrace/internal/risk"
)

// Handler 保养服务的 HTTP 传输层。
type Handler struct {
	svc *Service
	log logger.Logger
}

func NewHandler(svc *Service, log logger.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Register 挂载路由。
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/records", h.record)
	mux.HandleFunc("GET /api/v1/records", h.history)
	mux.HandleFunc("GET /api/v1/records/export", h.exportHistory)
	mux.HandleFunc("GET /api/v1/records/recent", h.recent)
	mux.HandleFunc("GET /api/v1/risk/{id}", h.assess)
	mux.HandleFunc("GET /api/v1/counts", h.counts)
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		server.WriteError(w, http.StatusNotFound, "not found")
	case errors.Is(err, risk.ErrNoCoachData):
		server.WriteError(w, http.StatusNotFound, err.Error())
	default:
		h.log.WithField("error", err.Error()).Error("maintenance request failed")
		server.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

type recordRequest struct {
	CoachID         string `json:"coach_id"`
	TrainNo         string `json:"train_no"`
	Date            string `json:"date"`
	MaintenanceType string `json:"maintenance_type"`
	Engineer        string `json:"engineer"`
	Notes           string `json:"notes"`
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if strings.TrimSpace(req.CoachID) == "" {
		server.WriteError(w, http.StatusBadRequest, "coach_id required")
		return
	}
	// 工程师默认取登录身份
	engineer := strings.TrimSpace(req.Engineer)
	if engineer == "" {
		if info, ok := server.AuthFromContext(r.Context()); ok {
			engineer = info.Subject
		}
	}
	if engineer == "" {
		server.WriteError(w, http.StatusBadRequest, "engineer required")
		return
	}

	rec, err := h.svc.RecordMaintenance(r.Context(), RecordInput{
		CoachID:         req.CoachID,
		TrainNo:         req.TrainNo,
		Date:            req.Date,
		MaintenanceType: req.MaintenanceType,
		Engineer:        engineer,
		Notes:           req.Notes,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusCreated, rec)
}

func (h *Handler) filterFromQuery(r *http.Request) HistoryFilter {
	q := r.URL.Query()
	return HistoryFilter{
		TrainNo:  q.Get("train_no"),
		CoachID:  q.Get("coach_id"),
		Engineer: q.Get("engineer"),
	}
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.History(r.Context(), h.filterFromQuery(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{"records": views, "total": len(views)})
}

func (h *Handler) exportHistory(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.History(r.Context(), h.filterFromQuery(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	data, err := HistoryCSV(views)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	server.WriteCSV(w, "maintenance_history.csv", data)
}

func (h *Handler) recent(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			server.WriteError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	views, err := h.svc.Recent(r.Context(), limit)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{"records": views, "total": len(views)})
}

func (h *Handler) assess(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.AssessRisk(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) counts(w http.ResponseWriter, r *http.Request) {
	total, err := h.svc.Count(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]int64{"records": total})
}

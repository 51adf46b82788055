package fleet

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/CoachTrace/CoachTrace/internal/common/logger"
	"github.com/CoachTrace/CoachTrace/internal/common/server"
)

// Handler 车队服务的 HTTP 传输层。
type Handler struct {
	svc *Service
	log logger.Logger
}

func NewHandler(svc *Service, log logger.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Register 挂载路由。
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/coaches", h.addCoach)
	mux.HandleFunc("GET /api/v1/coaches", h.listCoaches)
	mux.HandleFunc("GET /api/v1/coaches/export", h.exportCoaches)
	mux.HandleFunc("GET /api/v1/coaches/{id}", h.getCoach)
	mux.HandleFunc("PUT /api/v1/coaches/{id}", h.editCoach)
	mux.HandleFunc("DELETE /api/v1/coaches/{id}", h.deleteCoach)

	mux.HandleFunc("GET /api/v1/alerts", h.alerts)

	mux.HandleFunc("POST /api/v1/trains", h.addTrain)
	mux.HandleFunc("GET /api/v1/trains", h.listTrains)
	mux.HandleFunc("GET /api/v1/trains/export", h.exportTrains)
	mux.HandleFunc("PUT /api/v1/trains/{no}", h.editTrain)
	mux.HandleFunc("DELETE /api/v1/trains/{no}", h.deleteTrain)

	mux.HandleFunc("POST /api/v1/assignments", h.assign)
	mux.HandleFunc("GET /api/v1/assignments", h.listAssignments)
	mux.HandleFunc("GET /api/v1/assignments/export", h.exportAssignments)
	mux.HandleFunc("POST /api/v1/assignments/remove", h.unassign)

	mux.HandleFunc("GET /api/v1/counts", h.counts)
}

// writeDomainError 统一的错误码映射。
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		server.WriteError(w, http.StatusNotFound, "not found")
	case errors.Is(err, ErrCoachExists), errors.Is(err, ErrTrainExists), errors.Is(err, ErrAlreadyAssigned):
		server.WriteError(w, http.StatusConflict, err.Error())
	default:
		h.log.WithField("error", err.Error()).Error("fleet request failed")
		server.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

type coachRequest struct {
	CoachID         string `json:"coach_id"`
	Type            string `json:"type"`
	LastMaintenance string `json:"last_maintenance"`
	KmRun           *int64 `json:"km_run"`
	Status          string `json:"status"`
}

func (h *Handler) addCoach(w http.ResponseWriter, r *http.Request) {
	var req coachRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if strings.TrimSpace(req.CoachID) == "" {
		server.WriteError(w, http.StatusBadRequest, "coach_id required")
		return
	}
	var km int64
	if req.KmRun != nil {
		km = *req.KmRun
	}
	if km < 0 {
		server.WriteError(w, http.StatusBadRequest, "km_run must be non-negative")
		return
	}

	c, err := h.svc.AddCoach(r.Context(), AddCoachInput{
		CoachID:         req.CoachID,
		Type:            req.Type,
		LastMaintenance: req.LastMaintenance,
		KmRun:           km,
		Status:          Status(strings.TrimSpace(req.Status)),
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) getCoach(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.GetCoach(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) editCoach(w http.ResponseWriter, r *http.Request) {
	var req coachRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	var km int64
	if req.KmRun != nil {
		km = *req.KmRun
	}
	if km < 0 {
		server.WriteError(w, http.StatusBadRequest, "km_run must be non-negative")
		return
	}

	c, err := h.svc.EditCoach(r.Context(), EditCoachInput{
		CoachID:         r.PathValue("id"),
		Type:            req.Type,
		LastMaintenance: req.LastMaintenance,
		KmRun:           km,
		Status:          Status(strings.TrimSpace(req.Status)),
	})
	if err != nil {
		if strings.Contains(err.Error(), "status transition") || strings.Contains(err.Error(), "unknown coach status") {
			server.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.writeDomainError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) deleteCoach(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteCoach(r.Context(), r.PathValue("id")); err != nil {
		h.writeDomainError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]string{"deleted": r.PathValue("id")})
}

func (h *Handler) listCoaches(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.ListCoaches(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{"coaches": views, "total": len(views)})
}

func (h *Handler) exportCoaches(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.ListCoaches(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	data, err := CoachesCSV(views)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	server.WriteCSV(w, "coaches.csv", data)
}

func (h *Handler) alerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.svc.Alerts(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{"alerts": alerts, "total": len(alerts)})
}

type trainRequest struct {
	TrainNo     string `json:"train_no"`
	Name        string `json:"name"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

func (h *Handler) addTrain(w http.ResponseWriter, r *http.Request) {
	var req trainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if strings.TrimSpace(req.TrainNo) == "" {
		server.WriteError(w, http.StatusBadRequest, "train_no required")
		return
	}
	t, err := h.svc.AddTrain(r.Context(), TrainInput{
		TrainNo:     req.TrainNo,
		Name:        req.Name,
		Source:      req.Source,
		Destination: req.Destination,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusCreated, t)
}

func (h *Handler) editTrain(w http.ResponseWriter, r *http.Request) {
	var req trainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	t, err := h.svc.EditTrain(r.Context(), TrainInput{
		TrainNo:     r.PathValue("no"),
		Name:        req.Name,
		Source:      req.Source,
		Destination: req.Destination,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) deleteTrain(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteTrain(r.Context(), r.PathValue("no")); err != nil {
		h.writeDomainError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]string{"deleted": r.PathValue("no")})
}

func (h *Handler) listTrains(w http.ResponseWriter, r *http.Request) {
	trains, err := h.svc.ListTrains(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{"trains": trains, "total": len(trains)})
}

func (h *Handler) exportTrains(w http.ResponseWriter, r *http.Request) {
	trains, err := h.svc.ListTrains(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	data, err := TrainsCSV(trains)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	server.WriteCSV(w, "trains.csv", data)
}

type assignRequest struct {
	TrainNo  string   `json:"train_no"`
	CoachID  string   `json:"coach_id"`
	CoachIDs []string `json:"coach_ids"`
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if strings.TrimSpace(req.TrainNo) == "" || strings.TrimSpace(req.CoachID) == "" {
		server.WriteError(w, http.StatusBadRequest, "train_no and coach_id required")
		return
	}
	a, err := h.svc.Assign(r.Context(), req.TrainNo, req.CoachID)
	if err != nil {
		if strings.Contains(err.Error(), "removed from service") {
			server.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.writeDomainError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusCreated, a)
}

func (h *Handler) listAssignments(w http.ResponseWriter, r *http.Request) {
	as, err := h.svc.ListAssignments(r.Context(), r.URL.Query().Get("train_no"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{"assignments": as, "total": len(as)})
}

func (h *Handler) exportAssignments(w http.ResponseWriter, r *http.Request) {
	as, err := h.svc.ListAssignments(r.Context(), "")
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	data, err := AssignmentsCSV(as)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	server.WriteCSV(w, "assignments.csv", data)
}

func (h *Handler) unassign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if strings.TrimSpace(req.TrainNo) == "" {
		server.WriteError(w, http.StatusBadRequest, "train_no required")
		return
	}
	removed, err := h.svc.Unassign(r.Context(), req.TrainNo, req.CoachIDs)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]int64{"removed": removed})
}

func (h *Handler) counts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.svc.Counts(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, counts)
}

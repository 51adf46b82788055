package identity

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/CoachTrace/CoachTrace/internal/common/logger"
	"github.com/CoachTrace/CoachTrace/internal/common/server"
)

// Handler 账号服务的 HTTP 传输层。
type Handler struct {
	svc *Service
	log logger.Logger
}

func NewHandler(svc *Service, log logger.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Register 挂载路由。
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/login", h.login)
	mux.HandleFunc("POST /api/v1/engineers", h.addAccount)
	mux.HandleFunc("GET /api/v1/engineers", h.listAccounts)
	mux.HandleFunc("GET /api/v1/profile", h.profile)
	mux.HandleFunc("GET /api/v1/counts", h.counts)
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		server.WriteError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, ErrLoginThrottled):
		server.WriteError(w, http.StatusTooManyRequests, "too many login attempts")
	case errors.Is(err, ErrUsernameTaken):
		server.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		server.WriteError(w, http.StatusNotFound, "not found")
	default:
		h.log.WithField("error", err.Error()).Error("identity request failed")
		server.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	result, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, result)
}

type addAccountRequest struct {
	Username string   `json:"username"`
	Password string   `json:"password"`
	FullName string   `json:"full_name"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

func (h *Handler) addAccount(w http.ResponseWriter, r *http.Request) {
	var req addAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		server.WriteError(w, http.StatusBadRequest, "username and password required")
		return
	}
	a, err := h.svc.AddAccount(r.Context(), AddAccountInput{
		Username: req.Username,
		Password: req.Password,
		FullName: req.FullName,
		Email:    req.Email,
		Roles:    req.Roles,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusCreated, a)
}

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("page_size"))
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 200 {
		size = 20
	}
	accounts, total, err := h.svc.ListAccounts(r.Context(), (page-1)*size, size)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{"accounts": accounts, "total": total})
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	info, ok := server.AuthFromContext(r.Context())
	if !ok || strings.TrimSpace(info.Subject) == "" {
		server.WriteError(w, http.StatusUnauthorized, "missing auth")
		return
	}
	a, err := h.svc.GetAccount(r.Context(), info.Subject)
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
	server.WriteJSON(w, http.StatusOK, map[string]int64{"engineers": total})
}

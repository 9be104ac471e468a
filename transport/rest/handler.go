// Package rest exposes the CRUD side of the board: registration, login,
// and board posts. Creating a post feeds the relay's "new content"
// notice; everything else is plain request/response.
package rest

import (
	"bbs-lab/auth"
	bbserrors "bbs-lab/errors"
	"bbs-lab/projection"
	"bbs-lab/services"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

type Handler struct {
	auths    services.IAuthService
	boards   services.IBoardService
	timeline *projection.Timeline
	log      *slog.Logger
}

func NewHandler(auths services.IAuthService, boards services.IBoardService,
	timeline *projection.Timeline, log *slog.Logger) *Handler {
	return &Handler{auths: auths, boards: boards, timeline: timeline, log: log}
}

// Register wires the REST routes onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/register", h.handleRegister)
	mux.HandleFunc("POST /api/login", h.handleLogin)
	mux.HandleFunc("GET /api/boards/{board}/posts", h.handleListPosts)
	mux.HandleFunc("POST /api/boards/{board}/posts", h.handleCreatePost)
	mux.HandleFunc("GET /api/activity", h.handleActivity)
}

func (h *Handler) handleActivity(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.timeline.Recent())
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	token, err := h.auths.Register(req)
	if err != nil {
		switch {
		case errors.Is(err, bbserrors.ErrUserAlreadyExists):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, bbserrors.ErrInvalidPassword):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.log.Error("Registration failed", "error", err)
			writeError(w, http.StatusInternalServerError, "registration failed")
		}
		return
	}
	writeJSON(w, http.StatusCreated, tokenResponse{Token: string(token)})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	token, err := h.auths.Login(req)
	if err != nil {
		writeError(w, http.StatusUnauthorized, bbserrors.ErrInvalidCredentials.Error())
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: string(token)})
}

type createPostRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (h *Handler) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	_, name, err := h.identity(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "valid bearer token required")
		return
	}

	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}

	post, err := h.boards.CreatePost(r.PathValue("board"), name, req.Title, req.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (h *Handler) handleListPosts(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	posts, err := h.boards.ListPosts(r.PathValue("board"), limit)
	if err != nil {
		h.log.Error("Listing posts failed", "error", err)
		writeError(w, http.StatusInternalServerError, "listing failed")
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// identity resolves the Authorization bearer header.
func (h *Handler) identity(r *http.Request) (string, string, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", "", bbserrors.ErrInvalidCredentials
	}
	return h.auths.Resolve(token)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"error": detail})
}

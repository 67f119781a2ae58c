package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/boardhub/libs/httpx"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/account"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/apperr"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/board"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/messagebus"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/service"
)

type Handler struct {
	bus     *messagebus.Bus
	queries *service.Queries
	logger  *slog.Logger
}

func NewHandler(bus *messagebus.Bus, queries *service.Queries, logger *slog.Logger) *Handler {
	return &Handler{bus: bus, queries: queries, logger: logger}
}

func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/boards", h.CreateBoard)
	mux.HandleFunc("GET /api/v1/boards/{id}", h.GetBoard)
	mux.HandleFunc("PATCH /api/v1/boards/{id}", h.EditBoard)
	mux.HandleFunc("POST /api/v1/boards/{id}/comments", h.AddComment)
	mux.HandleFunc("PATCH /api/v1/boards/{id}/comments/{commentID}", h.EditComment)
	mux.HandleFunc("POST /api/v1/accounts", h.CreateAccount)
	mux.HandleFunc("GET /api/v1/accounts/{id}", h.GetAccount)
	mux.HandleFunc("PATCH /api/v1/accounts/{id}", h.UpdateAccount)
}

type createBoardRequest struct {
	Author  string `json:"author"`
	Title   string `json:"title"`
	Content string `json:"content"`
	State   string `json:"state"`
}

type editBoardRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	State   *string `json:"state"`
}

type commentRequest struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

type idResponse struct {
	ID string `json:"id"`
}

type commentItem struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	Content   string `json:"content"`
	State     string `json:"state"`
	CreatedAt string `json:"create_dt"`
}

type boardResponse struct {
	ID        string        `json:"id"`
	Author    string        `json:"author"`
	Title     string        `json:"title"`
	Content   string        `json:"content"`
	State     string        `json:"state"`
	CreatedAt string        `json:"create_dt"`
	Version   int64         `json:"version"`
	Comments  []commentItem `json:"comments"`
}

func (h *Handler) CreateBoard(w http.ResponseWriter, r *http.Request) {
	var req createBoardRequest
	if !h.decode(w, r, &req) {
		return
	}
	author, err := uuid.Parse(req.Author)
	if err != nil {
		h.fail(w, r, apperr.Newf(apperr.ErrValidation, "author must be a uuid"))
		return
	}

	id, err := messagebus.Dispatch[string](r.Context(), h.bus, board.CreateBoard{
		Author:  author,
		Title:   req.Title,
		Content: req.Content,
		State:   board.State(req.State),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	a, err := h.queries.Board(r.Context(), id.String())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := boardResponse{
		ID:        a.Board.ID.String(),
		Author:    a.Board.Author.String(),
		Title:     a.Board.Title,
		Content:   a.Board.Content,
		State:     string(a.Board.State),
		CreatedAt: a.Board.CreatedAt.Format(time.RFC3339),
		Version:   a.Board.Version,
		Comments:  make([]commentItem, 0, len(a.Comments)),
	}
	for _, c := range a.Comments {
		resp.Comments = append(resp.Comments, commentItem{
			ID:        c.ID.String(),
			Author:    c.Author.String(),
			Content:   c.Content,
			State:     string(c.State),
			CreatedAt: c.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) EditBoard(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req editBoardRequest
	if !h.decode(w, r, &req) {
		return
	}
	cmd := board.EditBoard{ID: id, Title: req.Title, Content: req.Content}
	if req.State != nil {
		s := board.State(*req.State)
		cmd.State = &s
	}
	if _, err := h.bus.Handle(r.Context(), cmd); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	boardID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req commentRequest
	if !h.decode(w, r, &req) {
		return
	}
	author, err := uuid.Parse(req.Author)
	if err != nil {
		h.fail(w, r, apperr.Newf(apperr.ErrValidation, "author must be a uuid"))
		return
	}
	id, err := messagebus.Dispatch[string](r.Context(), h.bus, board.AddComment{
		BoardID: boardID,
		Author:  author,
		Content: req.Content,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

func (h *Handler) EditComment(w http.ResponseWriter, r *http.Request) {
	boardID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	commentID, ok := h.pathID(w, r, "commentID")
	if !ok {
		return
	}
	var req commentRequest
	if !h.decode(w, r, &req) {
		return
	}
	if _, err := h.bus.Handle(r.Context(), board.EditComment{BoardID: boardID, ID: commentID, Content: req.Content}); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createAccountRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

type updateAccountRequest struct {
	Nickname *string `json:"nickname"`
	State    *string `json:"state"`
}

type accountResponse struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Nickname   string `json:"nickname"`
	State      string `json:"state"`
	BoardCount int    `json:"board_count"`
	CreatedAt  string `json:"create_dt"`
}

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if !h.decode(w, r, &req) {
		return
	}
	id, err := messagebus.Dispatch[string](r.Context(), h.bus, account.CreateAccount{
		Email:    req.Email,
		Password: req.Password,
		Nickname: req.Nickname,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	a, err := h.queries.Account(r.Context(), id.String())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accountResponse{
		ID:         a.Account.ID.String(),
		Email:      a.Account.Email,
		Nickname:   a.Account.Nickname,
		State:      string(a.Account.State),
		BoardCount: a.Account.BoardCount,
		CreatedAt:  a.Account.CreatedAt.Format(time.RFC3339),
	})
}

func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req updateAccountRequest
	if !h.decode(w, r, &req) {
		return
	}
	cmd := account.UpdateAccount{ID: id, Nickname: req.Nickname}
	if req.State != nil {
		s := account.State(*req.State)
		cmd.State = &s
	}
	if _, err := h.bus.Handle(r.Context(), cmd); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty body")
		}
		h.fail(w, r, apperr.Wrap(apperr.ErrDeserialization, err))
		return false
	}
	return true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		h.fail(w, r, apperr.Newf(apperr.ErrValidation, "%s must be a uuid", name))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "request_id", httpx.RequestIDFromContext(r.Context()), "path", r.URL.Path, "err", err)
		msg = http.StatusText(status)
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

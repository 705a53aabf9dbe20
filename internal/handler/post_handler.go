package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/blogman/internal/middleware"
	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/post"
)

// PostServiceInterface は投稿ハンドラーが必要とするサービスインターフェース。
type PostServiceInterface interface {
	// Create は新規投稿を作成する。
	Create(ctx context.Context, authorID string, in post.CreateInput) (*model.Post, error)
	// Update は既存投稿を更新する。公開もここで行う。
	Update(ctx context.Context, callerID string, in post.UpdateInput) (*model.Post, error)
	// Delete は呼び出し元が所有する投稿を削除する。
	Delete(ctx context.Context, callerID, id string) error
	// ListPublished は公開済み投稿の一覧を返す。
	ListPublished(ctx context.Context) ([]*model.Post, error)
	// ListOwnDrafts は呼び出し元が所有する下書きの一覧を返す。
	ListOwnDrafts(ctx context.Context, callerID string) ([]*model.Post, error)
	// GetPublishedByID は指定IDの公開済み投稿を返す。
	GetPublishedByID(ctx context.Context, id string) (*model.Post, error)
}

// PostHandler は投稿管理のHTTPハンドラー。
type PostHandler struct {
	service PostServiceInterface
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(service PostServiceInterface) *PostHandler {
	return &PostHandler{service: service}
}

// postRequest は投稿作成・更新リクエストのボディ。
type postRequest struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	Description string `json:"description"`
	TLDR        string `json:"tldr"`
	Status      string `json:"status,omitempty"`
}

// postSummaryResponse は一覧用の投稿レスポンス。本文は含まない。
type postSummaryResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	TLDR        string    `json:"tldr"`
	Author      string    `json:"author"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// postDetailResponse は詳細用の投稿レスポンス。
// 本文と、本文から導出した語数・読了時間を含む。
type postDetailResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Description string    `json:"description"`
	TLDR        string    `json:"tldr"`
	Author      string    `json:"author"`
	Status      string    `json:"status"`
	WordCount   int       `json:"word_count"`
	ReadingTime int       `json:"reading_time"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// insertResultResponse は投稿作成のレスポンス。
type insertResultResponse struct {
	Acknowledged bool   `json:"acknowledged"`
	InsertedID   string `json:"inserted_id"`
}

// updateResultResponse は投稿更新のレスポンス。
type updateResultResponse struct {
	Success bool               `json:"success"`
	Result  postDetailResponse `json:"result"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// List は投稿一覧を取得する。
// GET /posts は公開済み投稿を全員に返す。
// GET /posts?drafts=true は認証済みユーザー自身の下書きのみを返す。
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("drafts") == "true" {
		userID, err := middleware.UserIDFromContext(r.Context())
		if err != nil {
			writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
			return
		}

		drafts, err := h.service.ListOwnDrafts(r.Context(), userID)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writePostListResponse(w, drafts)
		return
	}

	posts, err := h.service.ListPublished(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writePostListResponse(w, posts)
}

// Get は公開済み投稿の詳細を取得する。
// GET /posts/{id}
// 認証不要。下書きは所有者であっても404を返す。
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")

	found, err := h.service.GetPublishedByID(r.Context(), postID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toPostDetailResponse(found))
}

// Create は新規投稿を作成する。
// POST /posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	created, err := h.service.Create(r.Context(), userID, post.CreateInput{
		Title:       req.Title,
		Content:     req.Content,
		Description: req.Description,
		TLDR:        req.TLDR,
		Status:      req.Status,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(insertResultResponse{
		Acknowledged: true,
		InsertedID:   created.ID.Hex(),
	})
}

// Update は既存投稿の更新または公開を処理する。
// PUT /posts
// 投稿IDはリクエストボディで受け取る。
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	updated, err := h.service.Update(r.Context(), userID, post.UpdateInput{
		ID:          req.ID,
		Title:       req.Title,
		Content:     req.Content,
		Description: req.Description,
		TLDR:        req.TLDR,
		Status:      req.Status,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updateResultResponse{
		Success: true,
		Result:  toPostDetailResponse(updated),
	})
}

// Delete は呼び出し元が所有する投稿を削除する。
// DELETE /posts/{id}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	postID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), userID, postID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

// writePostListResponse は投稿一覧をサマリー形式で書き込む。
func writePostListResponse(w http.ResponseWriter, posts []*model.Post) {
	results := make([]postSummaryResponse, len(posts))
	for i, p := range posts {
		results[i] = toPostSummaryResponse(p)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

// toPostSummaryResponse はドメインのPostをサマリーレスポンス型に変換する。
func toPostSummaryResponse(p *model.Post) postSummaryResponse {
	return postSummaryResponse{
		ID:          p.ID.Hex(),
		Title:       p.Title,
		Description: p.Description,
		TLDR:        p.TLDR,
		Author:      p.Author,
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// toPostDetailResponse はドメインのPostを詳細レスポンス型に変換する。
// 語数と読了時間は本文から都度導出する。
func toPostDetailResponse(p *model.Post) postDetailResponse {
	wordCount := post.WordCount(p.Content)
	return postDetailResponse{
		ID:          p.ID.Hex(),
		Title:       p.Title,
		Content:     p.Content,
		Description: p.Description,
		TLDR:        p.TLDR,
		Author:      p.Author,
		Status:      string(p.Status),
		WordCount:   wordCount,
		ReadingTime: post.ReadingTime(wordCount),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeValidation, model.ErrCodeInvalidPostID, "INVALID_REQUEST":
		return http.StatusBadRequest
	case model.ErrCodePostNotFound, model.ErrCodeUserNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

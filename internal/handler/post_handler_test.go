package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/hitoshi/blogman/internal/middleware"
	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/post"
)

// --- モック定義 ---

type mockPostService struct {
	createFn           func(ctx context.Context, authorID string, in post.CreateInput) (*model.Post, error)
	updateFn           func(ctx context.Context, callerID string, in post.UpdateInput) (*model.Post, error)
	deleteFn           func(ctx context.Context, callerID, id string) error
	listPublishedFn    func(ctx context.Context) ([]*model.Post, error)
	listOwnDraftsFn    func(ctx context.Context, callerID string) ([]*model.Post, error)
	getPublishedByIDFn func(ctx context.Context, id string) (*model.Post, error)
}

func (m *mockPostService) Create(ctx context.Context, authorID string, in post.CreateInput) (*model.Post, error) {
	if m.createFn != nil {
		return m.createFn(ctx, authorID, in)
	}
	return nil, errors.New("not implemented")
}

func (m *mockPostService) Update(ctx context.Context, callerID string, in post.UpdateInput) (*model.Post, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, callerID, in)
	}
	return nil, errors.New("not implemented")
}

func (m *mockPostService) Delete(ctx context.Context, callerID, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, callerID, id)
	}
	return errors.New("not implemented")
}

func (m *mockPostService) ListPublished(ctx context.Context) ([]*model.Post, error) {
	if m.listPublishedFn != nil {
		return m.listPublishedFn(ctx)
	}
	return nil, errors.New("not implemented")
}

func (m *mockPostService) ListOwnDrafts(ctx context.Context, callerID string) ([]*model.Post, error) {
	if m.listOwnDraftsFn != nil {
		return m.listOwnDraftsFn(ctx, callerID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockPostService) GetPublishedByID(ctx context.Context, id string) (*model.Post, error) {
	if m.getPublishedByIDFn != nil {
		return m.getPublishedByIDFn(ctx, id)
	}
	return nil, errors.New("not implemented")
}

var _ PostServiceInterface = (*mockPostService)(nil)

// --- テストヘルパー ---

// withUserID は認証済みユーザーIDをコンテキストに注入したリクエストを返す。
func withUserID(r *http.Request, userID string) *http.Request {
	ctx := middleware.ContextWithUserID(r.Context(), userID)
	return r.WithContext(ctx)
}

// withChiURLParam はchiのURLパラメータを設定したリクエストを返す。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseAPIErrorResponse はエラーレスポンスのJSONをパースする。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to parse error response: %v", err)
	}
	return body
}

func samplePost(author string, status model.PostStatus) *model.Post {
	return &model.Post{
		ID:          primitive.NewObjectID(),
		Title:       "タイトル",
		Content:     "<p>one two three</p>",
		Description: "概要",
		TLDR:        "要約",
		Author:      author,
		Status:      status,
		CreatedAt:   time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
	}
}

// --- List テスト ---

func TestPostList_Public_ReturnsPublishedSummaries(t *testing.T) {
	service := &mockPostService{
		listPublishedFn: func(ctx context.Context) ([]*model.Post, error) {
			return []*model.Post{samplePost("user-1", model.PostStatusPublished)}, nil
		},
	}
	h := NewPostHandler(service)

	r := httptest.NewRequest(http.MethodGet, "/posts", nil)
	w := httptest.NewRecorder()
	h.List(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body []map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(body) != 1 {
		t.Fatalf("posts = %d, want 1", len(body))
	}
	// 一覧レスポンスには本文を含めない
	if _, ok := body[0]["content"]; ok {
		t.Error("list response should not include content")
	}
	if body[0]["title"] != "タイトル" {
		t.Errorf("title = %v", body[0]["title"])
	}
}

func TestPostList_Drafts_Unauthenticated_Returns401(t *testing.T) {
	h := NewPostHandler(&mockPostService{})

	r := httptest.NewRequest(http.MethodGet, "/posts?drafts=true", nil)
	w := httptest.NewRecorder()
	h.List(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	body := parseAPIErrorResponse(t, w)
	if body["code"] != model.ErrCodeUnauthorized {
		t.Errorf("code = %q", body["code"])
	}
}

func TestPostList_Drafts_ScopedToCaller(t *testing.T) {
	var gotCaller string
	service := &mockPostService{
		listOwnDraftsFn: func(ctx context.Context, callerID string) ([]*model.Post, error) {
			gotCaller = callerID
			return []*model.Post{samplePost(callerID, model.PostStatusDraft)}, nil
		},
	}
	h := NewPostHandler(service)

	r := withUserID(httptest.NewRequest(http.MethodGet, "/posts?drafts=true", nil), "user-1")
	w := httptest.NewRecorder()
	h.List(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotCaller != "user-1" {
		t.Errorf("service called with %q, want user-1", gotCaller)
	}
}

// --- Get テスト ---

func TestPostGet_ReturnsDetailWithReadingTime(t *testing.T) {
	p := samplePost("user-1", model.PostStatusPublished)
	service := &mockPostService{
		getPublishedByIDFn: func(ctx context.Context, id string) (*model.Post, error) {
			return p, nil
		},
	}
	h := NewPostHandler(service)

	r := withChiURLParam(httptest.NewRequest(http.MethodGet, "/posts/"+p.ID.Hex(), nil), "id", p.ID.Hex())
	w := httptest.NewRecorder()
	h.Get(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body["content"] != "<p>one two three</p>" {
		t.Errorf("content = %v", body["content"])
	}
	if body["word_count"].(float64) != 3 {
		t.Errorf("word_count = %v, want 3", body["word_count"])
	}
	if body["reading_time"].(float64) != 1 {
		t.Errorf("reading_time = %v, want 1", body["reading_time"])
	}
}

func TestPostGet_NotFound_Returns404(t *testing.T) {
	service := &mockPostService{
		getPublishedByIDFn: func(ctx context.Context, id string) (*model.Post, error) {
			return nil, model.NewPostNotFoundError(id)
		},
	}
	h := NewPostHandler(service)

	id := primitive.NewObjectID().Hex()
	r := withChiURLParam(httptest.NewRequest(http.MethodGet, "/posts/"+id, nil), "id", id)
	w := httptest.NewRecorder()
	h.Get(w, r)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	body := parseAPIErrorResponse(t, w)
	if body["code"] != model.ErrCodePostNotFound {
		t.Errorf("code = %q", body["code"])
	}
}

func TestPostGet_InvalidID_Returns400(t *testing.T) {
	service := &mockPostService{
		getPublishedByIDFn: func(ctx context.Context, id string) (*model.Post, error) {
			return nil, model.NewInvalidPostIDError(id)
		},
	}
	h := NewPostHandler(service)

	r := withChiURLParam(httptest.NewRequest(http.MethodGet, "/posts/bad-id", nil), "id", "bad-id")
	w := httptest.NewRecorder()
	h.Get(w, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	body := parseAPIErrorResponse(t, w)
	if body["code"] != model.ErrCodeInvalidPostID {
		t.Errorf("code = %q", body["code"])
	}
}

// --- Create テスト ---

func TestPostCreate_Success_Returns201WithInsertResult(t *testing.T) {
	created := samplePost("user-1", model.PostStatusPublished)
	service := &mockPostService{
		createFn: func(ctx context.Context, authorID string, in post.CreateInput) (*model.Post, error) {
			if authorID != "user-1" {
				t.Errorf("authorID = %q", authorID)
			}
			if in.Title != "新規投稿" {
				t.Errorf("title = %q", in.Title)
			}
			return created, nil
		},
	}
	h := NewPostHandler(service)

	reqBody := `{"title":"新規投稿","content":"<p>本文</p>","description":"概要","tldr":"要約"}`
	r := withUserID(httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader(reqBody)), "user-1")
	w := httptest.NewRecorder()
	h.Create(w, r)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body["acknowledged"] != true {
		t.Error("acknowledged should be true")
	}
	if body["inserted_id"] != created.ID.Hex() {
		t.Errorf("inserted_id = %v, want %s", body["inserted_id"], created.ID.Hex())
	}
}

func TestPostCreate_Unauthenticated_Returns401(t *testing.T) {
	h := NewPostHandler(&mockPostService{})

	r := httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	h.Create(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestPostCreate_InvalidJSON_Returns400(t *testing.T) {
	h := NewPostHandler(&mockPostService{})

	r := withUserID(httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader(`{broken`)), "user-1")
	w := httptest.NewRecorder()
	h.Create(w, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	body := parseAPIErrorResponse(t, w)
	if body["code"] != "INVALID_REQUEST" {
		t.Errorf("code = %q", body["code"])
	}
}

func TestPostCreate_ValidationError_Returns400(t *testing.T) {
	service := &mockPostService{
		createFn: func(ctx context.Context, authorID string, in post.CreateInput) (*model.Post, error) {
			return nil, model.NewValidationError("titleは必須です。")
		},
	}
	h := NewPostHandler(service)

	r := withUserID(httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader(`{"content":"<p>x</p>"}`)), "user-1")
	w := httptest.NewRecorder()
	h.Create(w, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	body := parseAPIErrorResponse(t, w)
	if body["code"] != model.ErrCodeValidation {
		t.Errorf("code = %q", body["code"])
	}
	if body["category"] != "validation" {
		t.Errorf("category = %q", body["category"])
	}
}

// --- Update テスト ---

func TestPostUpdate_Success_ReturnsUpdatedPost(t *testing.T) {
	updated := samplePost("user-1", model.PostStatusPublished)
	service := &mockPostService{
		updateFn: func(ctx context.Context, callerID string, in post.UpdateInput) (*model.Post, error) {
			if in.ID != updated.ID.Hex() {
				t.Errorf("update ID = %q", in.ID)
			}
			return updated, nil
		},
	}
	h := NewPostHandler(service)

	reqBody := `{"id":"` + updated.ID.Hex() + `","title":"改訂","content":"<p>本文</p>","description":"概要","tldr":"要約","status":"published"}`
	r := withUserID(httptest.NewRequest(http.MethodPut, "/posts", strings.NewReader(reqBody)), "user-1")
	w := httptest.NewRecorder()
	h.Update(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body struct {
		Success bool                   `json:"success"`
		Result  map[string]interface{} `json:"result"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if !body.Success {
		t.Error("success should be true")
	}
	if body.Result["id"] != updated.ID.Hex() {
		t.Errorf("result id = %v", body.Result["id"])
	}
}

func TestPostUpdate_ForeignPost_Returns404(t *testing.T) {
	service := &mockPostService{
		updateFn: func(ctx context.Context, callerID string, in post.UpdateInput) (*model.Post, error) {
			return nil, model.NewPostNotFoundError(in.ID)
		},
	}
	h := NewPostHandler(service)

	reqBody := `{"id":"` + primitive.NewObjectID().Hex() + `","title":"x","content":"y","status":"draft"}`
	r := withUserID(httptest.NewRequest(http.MethodPut, "/posts", strings.NewReader(reqBody)), "attacker")
	w := httptest.NewRecorder()
	h.Update(w, r)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestPostUpdate_Unauthenticated_Returns401(t *testing.T) {
	h := NewPostHandler(&mockPostService{})

	r := httptest.NewRequest(http.MethodPut, "/posts", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	h.Update(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

// --- Delete テスト ---

func TestPostDelete_Success(t *testing.T) {
	var gotID, gotCaller string
	service := &mockPostService{
		deleteFn: func(ctx context.Context, callerID, id string) error {
			gotCaller, gotID = callerID, id
			return nil
		},
	}
	h := NewPostHandler(service)

	id := primitive.NewObjectID().Hex()
	r := withUserID(withChiURLParam(httptest.NewRequest(http.MethodDelete, "/posts/"+id, nil), "id", id), "user-1")
	w := httptest.NewRecorder()
	h.Delete(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotID != id || gotCaller != "user-1" {
		t.Errorf("Delete called with (%q, %q)", gotCaller, gotID)
	}

	var body map[string]bool
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if !body["success"] {
		t.Error("success should be true")
	}
}

func TestPostDelete_NotOwned_Returns404(t *testing.T) {
	service := &mockPostService{
		deleteFn: func(ctx context.Context, callerID, id string) error {
			return model.NewPostNotFoundError(id)
		},
	}
	h := NewPostHandler(service)

	id := primitive.NewObjectID().Hex()
	r := withUserID(withChiURLParam(httptest.NewRequest(http.MethodDelete, "/posts/"+id, nil), "id", id), "user-1")
	w := httptest.NewRecorder()
	h.Delete(w, r)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestPostDelete_Unauthenticated_Returns401(t *testing.T) {
	h := NewPostHandler(&mockPostService{})

	r := httptest.NewRequest(http.MethodDelete, "/posts/abc", nil)
	w := httptest.NewRecorder()
	h.Delete(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

// --- エラーマッピング ---

func TestHandleServiceError_UnknownError_Returns500(t *testing.T) {
	w := httptest.NewRecorder()
	handleServiceError(w, errors.New("database down"))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	body := parseAPIErrorResponse(t, w)
	if body["code"] != "INTERNAL_ERROR" {
		t.Errorf("code = %q", body["code"])
	}
	// 内部エラーの詳細を漏らさないこと
	if strings.Contains(body["message"], "database down") {
		t.Error("internal error details should not leak to the client")
	}
}

func TestMapAPIErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{model.ErrCodeUnauthorized, http.StatusUnauthorized},
		{model.ErrCodeValidation, http.StatusBadRequest},
		{model.ErrCodeInvalidPostID, http.StatusBadRequest},
		{"INVALID_REQUEST", http.StatusBadRequest},
		{model.ErrCodePostNotFound, http.StatusNotFound},
		{model.ErrCodeUserNotFound, http.StatusNotFound},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got := mapAPIErrorToHTTPStatus(&model.APIError{Code: tt.code})
			if got != tt.want {
				t.Errorf("mapAPIErrorToHTTPStatus(%s) = %d, want %d", tt.code, got, tt.want)
			}
		})
	}
}

package draft

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/post"
	"github.com/hitoshi/blogman/internal/repository"
)

// inMemoryPostRepo は投稿サービス連携テスト用のメモリ実装。
type inMemoryPostRepo struct {
	mu    sync.Mutex
	posts map[string]*model.Post
}

func newInMemoryPostRepo() *inMemoryPostRepo {
	return &inMemoryPostRepo{posts: map[string]*model.Post{}}
}

func (r *inMemoryPostRepo) Insert(ctx context.Context, p *model.Post) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = primitive.NewObjectID()
	clone := *p
	r.posts[p.ID.Hex()] = &clone
	return p.ID.Hex(), nil
}

func (r *inMemoryPostRepo) FindByID(ctx context.Context, id string) (*model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	clone := *p
	return &clone, nil
}

func (r *inMemoryPostRepo) FindPublishedByID(ctx context.Context, id string) (*model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok || p.Status != model.PostStatusPublished {
		return nil, nil
	}
	clone := *p
	return &clone, nil
}

func (r *inMemoryPostRepo) ListPublished(ctx context.Context) ([]*model.Post, error) {
	return nil, nil
}

func (r *inMemoryPostRepo) ListDraftsByAuthor(ctx context.Context, author string) ([]*model.Post, error) {
	return nil, nil
}

func (r *inMemoryPostRepo) Update(ctx context.Context, p *model.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *p
	r.posts[p.ID.Hex()] = &clone
	return nil
}

func (r *inMemoryPostRepo) Delete(ctx context.Context, id, author string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok || p.Author != author {
		return false, nil
	}
	delete(r.posts, id)
	return true, nil
}

func (r *inMemoryPostRepo) DeleteByAuthor(ctx context.Context, author string) (int64, error) {
	return 0, nil
}

var _ repository.PostRepository = (*inMemoryPostRepo)(nil)

type noopSanitizer struct{}

func (noopSanitizer) Sanitize(content string) string { return content }

func newRemoteStoreUnderTest() (*PostServiceRemoteStore, *inMemoryPostRepo) {
	repo := newInMemoryPostRepo()
	svc := post.NewService(repo, noopSanitizer{}, nil)
	return NewPostServiceRemoteStore(svc), repo
}

func testDraftContent() model.LocalDraft {
	return model.LocalDraft{
		Title:       "下書きタイトル",
		Content:     "<p>本文</p>",
		Description: "概要",
		TLDR:        "要約",
		LastSaved:   time.Now().UTC(),
	}
}

func TestPostServiceRemoteStore_CreateDraft(t *testing.T) {
	store, repo := newRemoteStoreUnderTest()

	id, err := store.CreateDraft(context.Background(), "user-1", testDraftContent())
	if err != nil {
		t.Fatalf("CreateDraft() error = %v", err)
	}

	p := repo.posts[id]
	if p == nil {
		t.Fatal("post should be persisted")
	}
	if p.Status != model.PostStatusDraft {
		t.Errorf("status = %q, want draft", p.Status)
	}
	if p.Author != "user-1" {
		t.Errorf("author = %q, want user-1", p.Author)
	}
}

// description/tldrのない下書きでも作成できること
func TestPostServiceRemoteStore_CreateDraft_MinimalFields(t *testing.T) {
	store, _ := newRemoteStoreUnderTest()

	d := model.LocalDraft{Title: "最小", Content: "<p>x</p>"}
	if _, err := store.CreateDraft(context.Background(), "user-1", d); err != nil {
		t.Errorf("CreateDraft() error = %v", err)
	}
}

func TestPostServiceRemoteStore_UpdateDraft(t *testing.T) {
	store, repo := newRemoteStoreUnderTest()

	id, err := store.CreateDraft(context.Background(), "user-1", testDraftContent())
	if err != nil {
		t.Fatalf("CreateDraft() error = %v", err)
	}

	d := testDraftContent()
	d.Title = "改訂版"
	if err := store.UpdateDraft(context.Background(), "user-1", id, d); err != nil {
		t.Fatalf("UpdateDraft() error = %v", err)
	}

	if repo.posts[id].Title != "改訂版" {
		t.Errorf("title = %q, want updated", repo.posts[id].Title)
	}
	if repo.posts[id].Status != model.PostStatusDraft {
		t.Errorf("status = %q, should remain draft", repo.posts[id].Status)
	}
}

func TestPostServiceRemoteStore_PublishDraft_ExistingDraft(t *testing.T) {
	store, repo := newRemoteStoreUnderTest()

	id, err := store.CreateDraft(context.Background(), "user-1", testDraftContent())
	if err != nil {
		t.Fatalf("CreateDraft() error = %v", err)
	}

	publishedID, err := store.PublishDraft(context.Background(), "user-1", id, testDraftContent())
	if err != nil {
		t.Fatalf("PublishDraft() error = %v", err)
	}

	if publishedID != id {
		t.Errorf("published ID = %q, want same as draft ID %q", publishedID, id)
	}
	if repo.posts[id].Status != model.PostStatusPublished {
		t.Errorf("status = %q, want published", repo.posts[id].Status)
	}
}

// idが空の場合は公開投稿を直接作成すること
func TestPostServiceRemoteStore_PublishDraft_DirectCreate(t *testing.T) {
	store, repo := newRemoteStoreUnderTest()

	id, err := store.PublishDraft(context.Background(), "user-1", "", testDraftContent())
	if err != nil {
		t.Fatalf("PublishDraft() error = %v", err)
	}

	if repo.posts[id] == nil {
		t.Fatal("post should be created")
	}
	if repo.posts[id].Status != model.PostStatusPublished {
		t.Errorf("status = %q, want published", repo.posts[id].Status)
	}
}

// 公開時の完全性要件（description/tldr必須）が下書き経由でも課されること
func TestPostServiceRemoteStore_PublishDraft_MissingDescription_Fails(t *testing.T) {
	store, _ := newRemoteStoreUnderTest()

	d := model.LocalDraft{Title: "不完全", Content: "<p>x</p>"}
	if _, err := store.PublishDraft(context.Background(), "user-1", "", d); err == nil {
		t.Error("publishing without description should fail")
	}
}

func TestPostServiceRemoteStore_DeleteDraft(t *testing.T) {
	store, repo := newRemoteStoreUnderTest()

	id, err := store.CreateDraft(context.Background(), "user-1", testDraftContent())
	if err != nil {
		t.Fatalf("CreateDraft() error = %v", err)
	}

	if err := store.DeleteDraft(context.Background(), "user-1", id); err != nil {
		t.Fatalf("DeleteDraft() error = %v", err)
	}

	if _, ok := repo.posts[id]; ok {
		t.Error("draft should be deleted from the store")
	}
}

// 他ユーザーのサーバー下書きは削除できないこと
func TestPostServiceRemoteStore_DeleteDraft_ForeignAuthor_Fails(t *testing.T) {
	store, repo := newRemoteStoreUnderTest()

	id, err := store.CreateDraft(context.Background(), "owner-user", testDraftContent())
	if err != nil {
		t.Fatalf("CreateDraft() error = %v", err)
	}

	if err := store.DeleteDraft(context.Background(), "attacker-user", id); err == nil {
		t.Error("deleting a foreign draft should fail")
	}
	if _, ok := repo.posts[id]; !ok {
		t.Error("foreign draft should survive the attempt")
	}
}

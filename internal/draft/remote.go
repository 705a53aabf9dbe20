package draft

import (
	"context"

	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/post"
)

// PostServiceRemoteStore は投稿サービスをバックエンドとするRemoteStore実装。
type PostServiceRemoteStore struct {
	posts *post.Service
}

// NewPostServiceRemoteStore はPostServiceRemoteStoreを生成する。
func NewPostServiceRemoteStore(posts *post.Service) *PostServiceRemoteStore {
	return &PostServiceRemoteStore{posts: posts}
}

// CreateDraft は下書きステータスの投稿を新規作成する。
func (r *PostServiceRemoteStore) CreateDraft(ctx context.Context, authorID string, d model.LocalDraft) (string, error) {
	created, err := r.posts.Create(ctx, authorID, post.CreateInput{
		Title:       d.Title,
		Content:     d.Content,
		Description: d.Description,
		TLDR:        d.TLDR,
		Status:      string(model.PostStatusDraft),
	})
	if err != nil {
		return "", err
	}
	return created.ID.Hex(), nil
}

// UpdateDraft は既存のサーバー下書きを上書きする。
func (r *PostServiceRemoteStore) UpdateDraft(ctx context.Context, authorID, id string, d model.LocalDraft) error {
	_, err := r.posts.Update(ctx, authorID, post.UpdateInput{
		ID:          id,
		Title:       d.Title,
		Content:     d.Content,
		Description: d.Description,
		TLDR:        d.TLDR,
		Status:      string(model.PostStatusDraft),
	})
	return err
}

// PublishDraft は下書きを公開する。idが空の場合は公開投稿を直接作成する。
func (r *PostServiceRemoteStore) PublishDraft(ctx context.Context, authorID, id string, d model.LocalDraft) (string, error) {
	if id == "" {
		created, err := r.posts.Create(ctx, authorID, post.CreateInput{
			Title:       d.Title,
			Content:     d.Content,
			Description: d.Description,
			TLDR:        d.TLDR,
			Status:      string(model.PostStatusPublished),
		})
		if err != nil {
			return "", err
		}
		return created.ID.Hex(), nil
	}

	updated, err := r.posts.Publish(ctx, authorID, post.UpdateInput{
		ID:          id,
		Title:       d.Title,
		Content:     d.Content,
		Description: d.Description,
		TLDR:        d.TLDR,
	})
	if err != nil {
		return "", err
	}
	return updated.ID.Hex(), nil
}

// DeleteDraft はサーバー下書きを削除する。
func (r *PostServiceRemoteStore) DeleteDraft(ctx context.Context, authorID, id string) error {
	return r.posts.Delete(ctx, authorID, id)
}

// compile-time interface check
var _ RemoteStore = (*PostServiceRemoteStore)(nil)

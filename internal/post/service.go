// Package post は投稿のライフサイクル管理（作成・更新・公開・削除）と
// 一覧取得を提供する。
package post

import (
	"context"
	"strings"
	"time"

	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/repository"
	"github.com/hitoshi/blogman/internal/security"
)

// MetricsRecorder は投稿操作のメトリクス記録インターフェース。
// nilの場合は記録をスキップする。
type MetricsRecorder interface {
	RecordPostCreated(status model.PostStatus)
	RecordPostPublished()
	RecordPostDeleted()
}

// Service は投稿ライフサイクルのサービス層。
// バリデーションと所有権チェックはすべてストア呼び出しの前に行う。
type Service struct {
	postRepo  repository.PostRepository
	sanitizer security.ContentSanitizerService
	metrics   MetricsRecorder
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
// metricsはnilを許容する。
func NewService(
	postRepo repository.PostRepository,
	sanitizer security.ContentSanitizerService,
	metrics MetricsRecorder,
) *Service {
	return &Service{
		postRepo:  postRepo,
		sanitizer: sanitizer,
		metrics:   metrics,
		now:       time.Now,
	}
}

// CreateInput は投稿作成の入力。
type CreateInput struct {
	Title       string
	Content     string
	Description string
	TLDR        string
	Status      string // 省略時はpublished
}

// UpdateInput は投稿更新の入力。Statusは必須。
type UpdateInput struct {
	ID          string
	Title       string
	Content     string
	Description string
	TLDR        string
	Status      string
}

// Create は新規投稿を作成する。
// titleとcontentはトリム後に非空であることを要求する。
// statusが省略された場合はpublishedとして扱い、未定義の値は拒否する。
// published の場合は description と tldr も非空であることを要求する。
// authorは呼び出し元セッションの識別子から一度だけ設定される。
func (s *Service) Create(ctx context.Context, authorID string, in CreateInput) (*model.Post, error) {
	if authorID == "" {
		return nil, model.NewUnauthorizedError()
	}

	fields, err := validateFields(in.Title, in.Content, in.Description, in.TLDR, in.Status, true)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	post := &model.Post{
		Title:       fields.title,
		Content:     s.sanitizer.Sanitize(fields.content),
		Description: fields.description,
		TLDR:        fields.tldr,
		Author:      authorID,
		Status:      fields.status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := s.postRepo.Insert(ctx, post); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordPostCreated(post.Status)
		if post.Status == model.PostStatusPublished {
			s.metrics.RecordPostPublished()
		}
	}

	return post, nil
}

// Update は既存投稿を更新する。
// id、title、content、statusは必須。published の場合は description と
// tldr も非空であることを要求する。
// 投稿が存在しない場合と呼び出し元が所有者でない場合は、どちらも
// POST_NOT_FOUNDを返す（下書きの存在を漏らさないため区別しない）。
// author と createdAt は変更されず、updatedAt のみ更新される。
func (s *Service) Update(ctx context.Context, callerID string, in UpdateInput) (*model.Post, error) {
	if callerID == "" {
		return nil, model.NewUnauthorizedError()
	}

	if strings.TrimSpace(in.ID) == "" {
		return nil, model.NewValidationError("idは必須です。")
	}
	if in.Status == "" {
		return nil, model.NewValidationError("statusは必須です。")
	}

	fields, err := validateFields(in.Title, in.Content, in.Description, in.TLDR, in.Status, false)
	if err != nil {
		return nil, err
	}

	existing, err := s.postRepo.FindByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil || existing.Author != callerID {
		return nil, model.NewPostNotFoundError(in.ID)
	}

	wasPublished := existing.Status == model.PostStatusPublished

	existing.Title = fields.title
	existing.Content = s.sanitizer.Sanitize(fields.content)
	existing.Description = fields.description
	existing.TLDR = fields.tldr
	existing.Status = fields.status
	existing.UpdatedAt = s.now().UTC()

	if err := s.postRepo.Update(ctx, existing); err != nil {
		return nil, err
	}

	if s.metrics != nil && !wasPublished && existing.Status == model.PostStatusPublished {
		s.metrics.RecordPostPublished()
	}

	return existing, nil
}

// Publish はUpdateの特殊形で、statusをpublishedに強制する。
// description/tldrの完全性要件はUpdateと同一。
func (s *Service) Publish(ctx context.Context, callerID string, in UpdateInput) (*model.Post, error) {
	in.Status = string(model.PostStatusPublished)
	return s.Update(ctx, callerID, in)
}

// Delete は呼び出し元が所有する投稿を物理削除する。
// 投稿が存在しない場合と所有者でない場合はどちらもPOST_NOT_FOUNDを返す。
func (s *Service) Delete(ctx context.Context, callerID, id string) error {
	if callerID == "" {
		return model.NewUnauthorizedError()
	}
	if strings.TrimSpace(id) == "" {
		return model.NewValidationError("idは必須です。")
	}

	deleted, err := s.postRepo.Delete(ctx, id, callerID)
	if err != nil {
		return err
	}
	if !deleted {
		return model.NewPostNotFoundError(id)
	}

	if s.metrics != nil {
		s.metrics.RecordPostDeleted()
	}

	return nil
}

// validatedFields はバリデーション済みの投稿フィールド。
type validatedFields struct {
	title       string
	content     string
	description string
	tldr        string
	status      model.PostStatus
}

// validateFields は投稿フィールドの共通バリデーションを行う。
// 同じ必須フィールド規則（published ⇒ description+tldr必須）を
// 作成時・更新時・公開時で同一に評価する。
// defaultPublishedがtrueの場合、status省略をpublishedとして解決する。
func validateFields(title, content, description, tldr, status string, defaultPublished bool) (*validatedFields, error) {
	f := &validatedFields{
		title:       strings.TrimSpace(title),
		content:     strings.TrimSpace(content),
		description: strings.TrimSpace(description),
		tldr:        strings.TrimSpace(tldr),
	}

	if f.title == "" {
		return nil, model.NewValidationError("titleは必須です。")
	}
	if f.content == "" {
		return nil, model.NewValidationError("contentは必須です。")
	}

	if status == "" && defaultPublished {
		status = string(model.PostStatusPublished)
	}
	f.status = model.PostStatus(status)
	if !f.status.Valid() {
		return nil, model.NewInvalidStatusError(status)
	}

	// 公開済み投稿は一覧表示に必要なフィールドが揃っていなければならない
	if f.status == model.PostStatusPublished {
		if f.description == "" {
			return nil, model.NewValidationError("公開にはdescriptionが必須です。")
		}
		if f.tldr == "" {
			return nil, model.NewValidationError("公開にはtldrが必須です。")
		}
	}

	return f, nil
}

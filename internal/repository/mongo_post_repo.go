package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hitoshi/blogman/internal/model"
)

// postsCollection は投稿を保存するコレクション名。
const postsCollection = "posts"

// MongoPostRepo はMongoDBを使用した投稿リポジトリ。
type MongoPostRepo struct {
	collection *mongo.Collection
}

// NewMongoPostRepo はMongoPostRepoを生成する。
func NewMongoPostRepo(db *mongo.Database) *MongoPostRepo {
	return &MongoPostRepo{collection: db.Collection(postsCollection)}
}

// EnsureIndexes は一覧取得に必要なインデックスを作成する。
// 起動時に1回呼ぶ。冪等。
func (r *MongoPostRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "author", Value: 1}, {Key: "status", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("投稿インデックスの作成に失敗しました: %w", err)
	}
	return nil
}

// parsePostID は投稿IDの16進表現をObjectIDに変換する。
// 不正な形式にはストアへの問い合わせ前にINVALID_POST_IDエラーを返す。
func parsePostID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, model.NewInvalidPostIDError(id)
	}
	return oid, nil
}

// Insert は投稿を作成し、ストアが採番したIDの16進表現を返す。
func (r *MongoPostRepo) Insert(ctx context.Context, post *model.Post) (string, error) {
	result, err := r.collection.InsertOne(ctx, post)
	if err != nil {
		return "", fmt.Errorf("投稿の作成に失敗しました: %w", err)
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("ストアが不明な形式のIDを返しました: %v", result.InsertedID)
	}
	post.ID = oid

	return oid.Hex(), nil
}

// FindByID は指定IDの投稿を公開状態に関わらず取得する。見つからない場合はnilを返す。
func (r *MongoPostRepo) FindByID(ctx context.Context, id string) (*model.Post, error) {
	oid, err := parsePostID(id)
	if err != nil {
		return nil, err
	}

	var post model.Post
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&post)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}

	return &post, nil
}

// FindPublishedByID は指定IDの公開済み投稿を取得する。
// 下書きは存在してもnil扱いになる。
func (r *MongoPostRepo) FindPublishedByID(ctx context.Context, id string) (*model.Post, error) {
	oid, err := parsePostID(id)
	if err != nil {
		return nil, err
	}

	var post model.Post
	err = r.collection.FindOne(ctx, bson.M{
		"_id":    oid,
		"status": model.PostStatusPublished,
	}).Decode(&post)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("公開済み投稿の取得に失敗しました: %w", err)
	}

	return &post, nil
}

// ListPublished は公開済み投稿の一覧をcreated_at降順で返す。
func (r *MongoPostRepo) ListPublished(ctx context.Context) ([]*model.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"status": model.PostStatusPublished}, opts)
	if err != nil {
		return nil, fmt.Errorf("公開済み投稿の一覧取得に失敗しました: %w", err)
	}
	defer cursor.Close(ctx)

	posts := []*model.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("公開済み投稿のデコードに失敗しました: %w", err)
	}

	return posts, nil
}

// ListDraftsByAuthor は指定作成者の下書き一覧をupdated_at降順で返す。
func (r *MongoPostRepo) ListDraftsByAuthor(ctx context.Context, author string) ([]*model.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{
		"author": author,
		"status": model.PostStatusDraft,
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("下書き一覧の取得に失敗しました: %w", err)
	}
	defer cursor.Close(ctx)

	posts := []*model.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("下書きのデコードに失敗しました: %w", err)
	}

	return posts, nil
}

// Update は投稿の可変フィールドを無条件に上書きする。
// author と created_at は変更されない。
func (r *MongoPostRepo) Update(ctx context.Context, post *model.Post) error {
	update := bson.M{
		"$set": bson.M{
			"title":       post.Title,
			"content":     post.Content,
			"description": post.Description,
			"tldr":        post.TLDR,
			"status":      post.Status,
			"updated_at":  post.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": post.ID}, update)
	if err != nil {
		return fmt.Errorf("投稿の更新に失敗しました: %w", err)
	}
	if result.MatchedCount == 0 {
		return model.NewPostNotFoundError(post.ID.Hex())
	}

	return nil
}

// Delete は指定作成者が所有する投稿を物理削除する。
// 削除された場合はtrueを、該当投稿がない場合はfalseを返す。
func (r *MongoPostRepo) Delete(ctx context.Context, id, author string) (bool, error) {
	oid, err := parsePostID(id)
	if err != nil {
		return false, err
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid, "author": author})
	if err != nil {
		return false, fmt.Errorf("投稿の削除に失敗しました: %w", err)
	}

	return result.DeletedCount > 0, nil
}

// DeleteByAuthor は指定作成者のすべての投稿を物理削除し、削除件数を返す。
// 退会処理で使用する。
func (r *MongoPostRepo) DeleteByAuthor(ctx context.Context, author string) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"author": author})
	if err != nil {
		return 0, fmt.Errorf("作成者の投稿削除に失敗しました: %w", err)
	}
	return result.DeletedCount, nil
}

// compile-time interface check
var _ PostRepository = (*MongoPostRepo)(nil)

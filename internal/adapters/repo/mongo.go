package repo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tweet-manager/internal/domain"
	"tweet-manager/internal/infra/metrics"
)

const postsCollection = "posts"

// Mongo реализует domain.PostRepo поверх одной коллекции документов.
// Валидация схемы — забота хранилища, а не этого адаптера.
type Mongo struct {
	posts *mongo.Collection
}

var _ domain.PostRepo = (*Mongo)(nil)

// NewMongo создаёт адаптер.
func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{posts: db.Collection(postsCollection)}
}

// SavePosts сохраняет посты upsert-ом по id. SkipDuplicates пропускает уже
// сохранённые документы, PreserveThreadOrder оставляет назначенные
// реконструктором ThreadID и ThreadIndex. SavedBy и SavedAt проставляются
// только здесь.
func (r *Mongo) SavePosts(ctx context.Context, posts []domain.Post, savedBy string, opts domain.SaveOptions) (domain.SaveResult, error) {
	if savedBy == "" {
		savedBy = "anonymous"
	}
	var result domain.SaveResult
	now := time.Now().UTC()
	for _, post := range posts {
		if post.ID == "" {
			continue
		}
		if opts.SkipDuplicates {
			count, err := r.posts.CountDocuments(ctx, bson.M{"id": post.ID})
			if err != nil {
				return result, fmt.Errorf("проверка дубликата %s: %w", post.ID, err)
			}
			if count > 0 {
				result.Skipped++
				continue
			}
		}
		post.SavedBy = savedBy
		post.SavedAt = &now
		if !opts.PreserveThreadOrder {
			post.ThreadID = ""
			post.ThreadIndex = 0
		}

		var update bson.M
		if opts.PreserveExisting {
			update = bson.M{"$setOnInsert": post}
		} else {
			update = bson.M{"$set": post}
		}
		if _, err := r.posts.UpdateOne(ctx, bson.M{"id": post.ID}, update, options.Update().SetUpsert(true)); err != nil {
			return result, fmt.Errorf("сохранение поста %s: %w", post.ID, err)
		}
		result.Saved++
	}
	metrics.PostsSavedTotal.Add(float64(result.Saved))
	metrics.PostsSkippedTotal.Add(float64(result.Skipped))
	return result, nil
}

// ListSaved возвращает все сохранённые посты, новые выше.
func (r *Mongo) ListSaved(ctx context.Context) ([]domain.Post, error) {
	return r.find(ctx, bson.M{}, bson.D{{Key: "created_at", Value: -1}})
}

// ListSavedByUser возвращает посты, сохранённые указанным пользователем.
func (r *Mongo) ListSavedByUser(ctx context.Context, username string) ([]domain.Post, error) {
	return r.find(ctx, bson.M{"savedBy": username}, bson.D{{Key: "savedAt", Value: -1}})
}

func (r *Mongo) find(ctx context.Context, filter bson.M, sort bson.D) ([]domain.Post, error) {
	cursor, err := r.posts.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("поиск постов: %w", err)
	}
	defer cursor.Close(ctx)
	var posts []domain.Post
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("чтение курсора: %w", err)
	}
	return posts, nil
}

// SavedUsers возвращает пользователей, сохранявших посты, с количеством
// и временем последнего сохранения.
func (r *Mongo) SavedUsers(ctx context.Context) ([]domain.SavedUser, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$savedBy"},
			{Key: "tweetCount", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "lastSaved", Value: bson.D{{Key: "$max", Value: "$savedAt"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "lastSaved", Value: -1}}}},
	}
	cursor, err := r.posts.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("агрегация пользователей: %w", err)
	}
	defer cursor.Close(ctx)
	var users []domain.SavedUser
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("чтение курсора: %w", err)
	}
	return users, nil
}

// DeleteByID удаляет один сохранённый пост.
func (r *Mongo) DeleteByID(ctx context.Context, id string) error {
	res, err := r.posts.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("удаление поста %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", id, domain.ErrPostNotFound)
	}
	return nil
}

// DeleteByUser удаляет все посты, сохранённые пользователем, и возвращает
// количество удалённых документов.
func (r *Mongo) DeleteByUser(ctx context.Context, username string) (int64, error) {
	res, err := r.posts.DeleteMany(ctx, bson.M{"savedBy": username})
	if err != nil {
		return 0, fmt.Errorf("удаление постов пользователя %s: %w", username, err)
	}
	return res.DeletedCount, nil
}

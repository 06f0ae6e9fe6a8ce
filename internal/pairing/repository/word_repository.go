package repository

import (
	"context"

	"pair_chat_service/internal/pairing/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// WordRepository link-substitution 字典, 對本服務唯讀
type WordRepository interface {
	FetchAll(ctx context.Context) (map[string]string, error)
}

type wordRepository struct {
	coll *mongo.Collection
}

// NewMongoWordRepository create word repository backed by mongo
func NewMongoWordRepository(db *mongo.Database) WordRepository {
	return &wordRepository{coll: db.Collection("words")}
}

func (r *wordRepository) FetchAll(ctx context.Context) (map[string]string, error) {
	cur, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}

	var docs []domain.Word
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	words := make(map[string]string, len(docs))
	for _, w := range docs {
		words[w.Key] = w.URL
	}
	return words, nil
}

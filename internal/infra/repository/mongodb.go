package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/WPMirror/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoRepository struct {
	db         *mongo.Database
	collection *mongo.Collection
}

func NewMongoRepository(client *mongo.Client, dbName, collectionName string) (*MongoRepository, error) {
	db := client.Database(dbName)
	repo := &MongoRepository{
		db:         db,
		collection: db.Collection(collectionName),
	}

	if err := repo.createIndexes(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return repo, nil
}

func (r *MongoRepository) createIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "site", Value: 1},
				{Key: "collection", Value: 1},
				{Key: "modified_at", Value: -1},
			},
			Options: options.Index().SetName("site_collection_modified_at_idx"),
		},
		{
			Keys: bson.D{
				{Key: "site", Value: 1},
				{Key: "collection", Value: 1},
				{Key: "external_id", Value: 1},
			},
			Options: options.Index().SetName("site_collection_external_id_idx").SetUnique(true),
		},
	}

	opts := options.CreateIndexes().SetMaxTime(10 * time.Second)
	_, err := r.collection.Indexes().CreateMany(ctx, models, opts)
	return err
}

func (r *MongoRepository) BulkUpsert(ctx context.Context, entries []domain.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(entries))
	for _, entry := range entries {
		filter := bson.M{"_id": entry.ID}
		update := bson.M{"$set": entry}
		models = append(models, mongo.NewUpdateOneModel().SetFilter(filter).SetUpdate(update).SetUpsert(true))
	}

	opts := options.BulkWrite().SetOrdered(false)
	if _, err := r.collection.BulkWrite(ctx, models, opts); err != nil {
		return fmt.Errorf("failed to bulk upsert entries: %w", err)
	}
	return nil
}

// GetLatestModified returns the entry of a site collection with the newest
// modified_at, or nil when nothing was mirrored yet. WordPress timestamps
// are fixed-width, so string order is time order.
func (r *MongoRepository) GetLatestModified(ctx context.Context, site, collection string) (*domain.Entry, error) {
	filter := bson.M{"site": site, "collection": collection}
	opts := options.FindOne().SetSort(bson.D{{Key: "modified_at", Value: -1}})

	var entry domain.Entry
	err := r.collection.FindOne(ctx, filter, opts).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *MongoRepository) GetContentHashes(ctx context.Context, ids []string) (map[string]string, error) {
	filter := bson.M{"_id": bson.M{"$in": ids}}
	opts := options.Find().SetProjection(bson.M{"_id": 1, "content_hash": 1})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := cursor.Close(ctx); err != nil {
			slog.Warn("Failed to close cursor", "error", err)
		}
	}()

	results := make(map[string]string)
	for cursor.Next(ctx) {
		var doc struct {
			ID          string `bson:"_id"`
			ContentHash string `bson:"content_hash"`
		}
		if err := cursor.Decode(&doc); err != nil {
			continue // Skip malformed
		}
		results[doc.ID] = doc.ContentHash
	}
	return results, cursor.Err()
}

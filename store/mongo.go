package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/imaxbooking/chat-server/models"
)

// MongoMessageStore persists messages in a MongoDB collection. Documents are
// keyed by the client-supplied messageId through a unique index, so duplicate
// inserts surface as ErrDuplicateMessage.
type MongoMessageStore struct {
	coll *mongo.Collection
}

func NewMongoMessageStore(db *mongo.Database) (*MongoMessageStore, error) {
	coll := db.Collection("messages")
	_, err := coll.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "message_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("create message_id index: %w", err)
	}
	return &MongoMessageStore{coll: coll}, nil
}

func (s *MongoMessageStore) Insert(ctx context.Context, message models.Message) error {
	_, err := s.coll.InsertOne(ctx, message)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateMessage
		}
		return fmt.Errorf("InsertOne: %w", err)
	}
	return nil
}

func (s *MongoMessageStore) Get(ctx context.Context, messageID string) (*models.Message, error) {
	var message models.Message
	err := s.coll.FindOne(ctx, bson.M{"message_id": messageID}).Decode(&message)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("FindOne: %w", err)
	}
	return &message, nil
}

func (s *MongoMessageStore) UpdateFields(ctx context.Context, messageID string, update MessageUpdate) error {
	set := bson.M{}
	if update.Body != nil {
		set["message"] = *update.Body
	}
	if update.Edited != nil {
		set["edited"] = *update.Edited
	}
	if update.Read != nil {
		set["read"] = *update.Read
	}
	if len(set) == 0 {
		return nil
	}

	res, err := s.coll.UpdateOne(ctx, bson.M{"message_id": messageID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("UpdateOne: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (s *MongoMessageStore) Delete(ctx context.Context, messageID string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"message_id": messageID})
	if err != nil {
		return fmt.Errorf("DeleteOne: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (s *MongoMessageStore) QueryRecent(ctx context.Context, filter MessageFilter, limit int) ([]models.Message, error) {
	if limit == 0 {
		limit = defaultQueryLimit
	}

	query := bson.M{}
	if filter.Participant != "" {
		query["$or"] = bson.A{
			bson.M{"recipient_id": nil},
			bson.M{"sender_id": filter.Participant},
			bson.M{"recipient_id": filter.Participant},
		}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("Find: %w", err)
	}
	defer cur.Close(ctx)

	var messages []models.Message
	if err := cur.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("cursor.All: %w", err)
	}

	// newest first from the cursor; callers get oldest first
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

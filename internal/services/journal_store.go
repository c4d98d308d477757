package services

import (
	"context"

	"github.com/triptales/triptales-backend/internal/database"
	"github.com/triptales/triptales-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// JournalCollection is the MongoDB collection holding journal records.
const JournalCollection = "journals"

// EnsureJournalIndexes configures indexes for the journals collection.
// Called on startup from main after Mongo has connected.
func EnsureJournalIndexes(ctx context.Context) error {
	col := database.DB.Collection(JournalCollection)

	// Compound index on (user_id_string, created_at) to support the
	// per-user listing; created_at alone covers the shared map feed.
	indexModels := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id_string", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_user_created"),
		},
	}

	for _, m := range indexModels {
		if _, err := col.Indexes().CreateOne(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// JournalStore reads and writes journal records in MongoDB. It satisfies
// RecordStore for the upload workflow.
type JournalStore struct{}

// Insert writes one journal record. This is the workflow's commit point.
func (JournalStore) Insert(ctx context.Context, journal *models.Journal) (primitive.ObjectID, error) {
	if journal.ID.IsZero() {
		journal.ID = primitive.NewObjectID()
	}
	_, err := database.DB.Collection(JournalCollection).InsertOne(ctx, journal)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return journal.ID, nil
}

// ByUser returns every journal record owned by userID, unsorted. Callers
// order the result with SortJournalsNewestFirst so records with a missing
// timestamp are kept rather than dropped.
func (JournalStore) ByUser(ctx context.Context, userID string) ([]models.Journal, error) {
	filter := bson.M{"user_id_string": userID}

	cursor, err := database.DB.Collection(JournalCollection).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var journals []models.Journal
	if err := cursor.All(ctx, &journals); err != nil {
		return nil, err
	}
	return journals, nil
}

// All returns every journal record regardless of owner. The shared map screen
// shows every user's entries.
func (JournalStore) All(ctx context.Context) ([]models.Journal, error) {
	cursor, err := database.DB.Collection(JournalCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var journals []models.Journal
	if err := cursor.All(ctx, &journals); err != nil {
		return nil, err
	}
	return journals, nil
}

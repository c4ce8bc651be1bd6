// internal/app/store/procedurelogs/procedurelogstore.go
package procedurelogstore

import (
	"context"
	"time"

	"github.com/dalemusser/residenthub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Key identifies one ledger row.
type Key struct {
	ResidentID  primitive.ObjectID
	RotationID  primitive.ObjectID
	ProcedureID string
}

// Store persists ledger rows in the procedure_logs collection. The unique
// (resident_id, rotation_id, procedure_id) index is created by indexes.EnsureAll.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("procedure_logs")}
}

// Increment adds one to the row's count, creating the row with count=1 and
// validated_count=0 if it does not exist. It returns the row after the update.
//
// Two first-time increments on the same key can both try to insert; the loser
// gets a duplicate-key error and is retried once, when it finds the row.
func (s *Store) Increment(ctx context.Context, k Key, at time.Time) (models.ProcedureLog, error) {
	filter := bson.M{
		"resident_id":  k.ResidentID,
		"rotation_id":  k.RotationID,
		"procedure_id": k.ProcedureID,
	}
	update := bson.M{
		"$inc": bson.M{"count": int64(1)},
		"$set": bson.M{"last_logged_at": at, "updated_at": at},
		"$setOnInsert": bson.M{
			"validated_count": int64(0),
			"created_at":      at,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var row models.ProcedureLog
	err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&row)
	if err != nil && wafflemongo.IsDup(err) {
		row = models.ProcedureLog{}
		err = s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&row)
	}
	if err != nil {
		return models.ProcedureLog{}, err
	}
	return row, nil
}

// ListPair returns every row of one (resident, rotation) pair.
func (s *Store) ListPair(ctx context.Context, residentID, rotationID primitive.ObjectID) ([]models.ProcedureLog, error) {
	cur, err := s.c.Find(ctx, bson.M{"resident_id": residentID, "rotation_id": rotationID},
		options.Find().SetSort(bson.D{{Key: "procedure_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.ProcedureLog{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ValidateAll sets validated_count to count on every row of the pair that
// has pending performances, and returns how many rows changed. Each row is
// read and written in one server-side pipeline update, so a concurrent
// Increment is either fully included or left pending.
func (s *Store) ValidateAll(ctx context.Context, residentID, rotationID, validatorID primitive.ObjectID, at time.Time) (int64, error) {
	filter := bson.M{
		"resident_id": residentID,
		"rotation_id": rotationID,
		"$expr":       bson.M{"$lt": bson.A{"$validated_count", "$count"}},
	}
	set := bson.D{
		{Key: "validated_count", Value: "$count"},
		{Key: "validated_at", Value: at},
		{Key: "updated_at", Value: at},
	}
	if !validatorID.IsZero() {
		set = append(set, bson.E{Key: "validated_by", Value: validatorID})
	}
	pipeline := mongo.Pipeline{{{Key: "$set", Value: set}}}

	res, err := s.c.UpdateMany(ctx, filter, pipeline)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

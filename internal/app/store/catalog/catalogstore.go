// internal/app/store/catalog/catalogstore.go
package catalogstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/residenthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when a rotation or resident does not exist.
	ErrNotFound = errors.New("catalog: not found")
	// ErrNameRequired is returned by upserts when the name is empty after cleaning.
	ErrNameRequired = errors.New("catalog: name is required")
	// ErrDuplicateProcedure is returned when a rotation repeats a procedure id.
	ErrDuplicateProcedure = errors.New("catalog: duplicate procedure id")
	// ErrProcedureLocked is returned when an update changes the goal of an
	// existing procedure or drops it. Ledger rows count against those goals.
	ErrProcedureLocked = errors.New("catalog: existing procedure goals are fixed")
)

// Store reads rotations and residents from MongoDB.
type Store struct {
	rotations *mongo.Collection
	residents *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		rotations: db.Collection("rotations"),
		residents: db.Collection("residents"),
	}
}

// ListRotations returns every rotation ordered by folded name.
func (s *Store) ListRotations(ctx context.Context) ([]models.Rotation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.rotations.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Rotation{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListResidents returns every resident ordered by folded name.
func (s *Store) ListResidents(ctx context.Context) ([]models.Resident, error) {
	opts := options.Find().SetSort(bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.residents.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Resident{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetRotation(ctx context.Context, id primitive.ObjectID) (models.Rotation, error) {
	var r models.Rotation
	if err := s.rotations.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Rotation{}, fmt.Errorf("rotation %s: %w", id.Hex(), ErrNotFound)
		}
		return models.Rotation{}, err
	}
	return r, nil
}

func (s *Store) GetResident(ctx context.Context, id primitive.ObjectID) (models.Resident, error) {
	var res models.Resident
	if err := s.residents.FindOne(ctx, bson.M{"_id": id}).Decode(&res); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Resident{}, fmt.Errorf("resident %s: %w", id.Hex(), ErrNotFound)
		}
		return models.Resident{}, err
	}
	return res, nil
}

// UpsertRotation inserts or replaces a rotation by ID. A zero ID creates a
// new rotation. CreatedAt is kept from the stored document. Procedures of an
// existing rotation keep their goals and cannot be removed.
func (s *Store) UpsertRotation(ctx context.Context, r models.Rotation) (models.Rotation, error) {
	now := time.Now().UTC()
	r, err := prepareRotation(r, now)
	if err != nil {
		return models.Rotation{}, err
	}

	prev, err := s.GetRotation(ctx, r.ID)
	switch {
	case err == nil:
		if err := checkProceduresLocked(prev, r); err != nil {
			return models.Rotation{}, err
		}
	case !errors.Is(err, ErrNotFound):
		return models.Rotation{}, err
	}

	update := bson.M{
		"$set": bson.M{
			"name":                      r.Name,
			"name_ci":                   r.NameCI,
			"lead_teacher_id":           r.LeadTeacherID,
			"participating_teacher_ids": r.ParticipatingTeacherIDs,
			"procedures":                r.Procedures,
			"updated_at":                r.UpdatedAt,
		},
		"$setOnInsert": bson.M{"created_at": r.CreatedAt},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var out models.Rotation
	if err := s.rotations.FindOneAndUpdate(ctx, bson.M{"_id": r.ID}, update, opts).Decode(&out); err != nil {
		return models.Rotation{}, err
	}
	return out, nil
}

// UpsertResident inserts or replaces a resident by ID.
func (s *Store) UpsertResident(ctx context.Context, res models.Resident) (models.Resident, error) {
	now := time.Now().UTC()
	res, err := prepareResident(res, now)
	if err != nil {
		return models.Resident{}, err
	}

	update := bson.M{
		"$set": bson.M{
			"full_name":    res.FullName,
			"full_name_ci": res.FullNameCI,
			"level":        res.Level,
			"status":       res.Status,
			"updated_at":   res.UpdatedAt,
		},
		"$setOnInsert": bson.M{"created_at": res.CreatedAt},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var out models.Resident
	if err := s.residents.FindOneAndUpdate(ctx, bson.M{"_id": res.ID}, update, opts).Decode(&out); err != nil {
		return models.Resident{}, err
	}
	return out, nil
}

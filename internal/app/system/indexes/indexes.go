// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	sets := []struct {
		name string
		fn   func(context.Context, *mongo.Database) error
	}{
		{"residents", ensureResidents},
		{"rotations", ensureRotations},
		// the unique key here backs the ledger's upsert-increment
		{"procedure_logs", ensureProcedureLogs},
		{"quizzes", ensureQuizzes},
		{"exam_attempts", ensureExamAttempts},
		{"competency_evaluations", ensureEvaluations("competency_evaluations", "comp")},
		{"presentation_evaluations", ensureEvaluations("presentation_evaluations", "pres")},
	}
	for _, s := range sets {
		if err := s.fn(ctx, db); err != nil {
			problems = append(problems, s.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	return (a != nil && *a) == (b != nil && *b)
}

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	return strings.Contains(err.Error(), "E11000")
}

func listExisting(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	existing := map[string]existingIndex{} // sig -> index
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing, cur.Err()
}

// ensureIndexSet makes coll carry every index in models. An index with the
// same keys is reused when its uniqueness and name match, and dropped and
// recreated otherwise.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	existing, err := listExisting(ctx, coll)
	if err != nil {
		// A collection that does not exist yet has no indexes to reconcile.
		existing = map[string]existingIndex{}
	}

	var errs []string
	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			desiredUnique = m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))
		unique := desiredUnique != nil && *desiredUnique
		start := time.Now()

		if ex, ok := existing[sig]; ok {
			if sameBoolPtr(desiredUnique, ex.Unique) && (desiredName == "" || ex.Name == desiredName) {
				zap.L().Debug("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", sig))
				continue
			}
			// Options or name differ: drop & recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
		}

		created, err := coll.Indexes().CreateOne(ctx, m)
		if err != nil {
			zap.L().Warn("index ensure failed",
				zap.String("collection", coll.Name()),
				zap.String("name", desiredName),
				zap.String("keys", sig),
				zap.Bool("unique", unique),
				zap.Error(err))
			if isDuplicateKeyErr(err) && unique {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), desiredName))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			}
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", created),
			zap.String("keys", sig),
			zap.Bool("unique", unique),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureResidents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("residents"), []mongo.IndexModel{
		// catalog listing order
		{
			Keys:    bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_residents_fullnameci__id"),
		},
	})
}

func ensureRotations(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("rotations"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_rotations_nameci__id"),
		},
		{
			Keys:    bson.D{{Key: "lead_teacher_id", Value: 1}},
			Options: options.Index().SetName("idx_rotations_lead"),
		},
		// multikey
		{
			Keys:    bson.D{{Key: "participating_teacher_ids", Value: 1}},
			Options: options.Index().SetName("idx_rotations_participants"),
		},
	})
}

func ensureProcedureLogs(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("procedure_logs"), []mongo.IndexModel{
		// One ledger row per (resident, rotation, procedure).
		{
			Keys: bson.D{
				{Key: "resident_id", Value: 1},
				{Key: "rotation_id", Value: 1},
				{Key: "procedure_id", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("uniq_plogs_resident_rotation_procedure"),
		},
		// supervisors reviewing a rotation
		{
			Keys:    bson.D{{Key: "rotation_id", Value: 1}, {Key: "resident_id", Value: 1}},
			Options: options.Index().SetName("idx_plogs_rotation_resident"),
		},
	})
}

func ensureQuizzes(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("quizzes"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "subject_name", Value: 1}},
			Options: options.Index().SetName("idx_quizzes_subject"),
		},
		{
			Keys:    bson.D{{Key: "interdisciplinary", Value: 1}},
			Options: options.Index().SetName("idx_quizzes_interdisciplinary"),
		},
	})
}

func ensureExamAttempts(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("exam_attempts"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "state", Value: 1}, {Key: "quiz_id", Value: 1}, {Key: "resident_id", Value: 1}},
			Options: options.Index().SetName("idx_attempts_state_quiz_resident"),
		},
		{
			Keys:    bson.D{{Key: "resident_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_attempts_resident_created"),
		},
	})
}

func ensureEvaluations(collection, prefix string) func(context.Context, *mongo.Database) error {
	return func(ctx context.Context, db *mongo.Database) error {
		return ensureIndexSet(ctx, db.Collection(collection), []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "resident_id", Value: 1}, {Key: "rotation_id", Value: 1}},
				Options: options.Index().SetName("idx_" + prefix + "_resident_rotation"),
			},
		})
	}
}

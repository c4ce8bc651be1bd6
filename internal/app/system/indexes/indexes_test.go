package indexes_test

import (
	"testing"

	"github.com/dalemusser/residenthub/internal/app/system/indexes"
	"github.com/dalemusser/residenthub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func indexNames(t *testing.T, db *mongo.Database, collection string) map[string]bson.M {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cur, err := db.Collection(collection).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bson.M)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = idx
		}
	}
	return names
}

func TestEnsureAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// EnsureAll should succeed on a clean database
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_ProcedureLogKeyIsUnique(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	names := indexNames(t, db, "procedure_logs")
	idx, ok := names["uniq_plogs_resident_rotation_procedure"]
	if !ok {
		t.Fatal("expected unique ledger index on procedure_logs")
	}
	if unique, _ := idx["unique"].(bool); !unique {
		t.Error("expected ledger index to be unique")
	}
	if _, ok := names["idx_plogs_rotation_resident"]; !ok {
		t.Error("expected idx_plogs_rotation_resident")
	}
}

func TestEnsureAll_CreatesCatalogAndEvaluationIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	expected := map[string][]string{
		"residents":                {"idx_residents_fullnameci__id"},
		"rotations":                {"idx_rotations_nameci__id", "idx_rotations_lead", "idx_rotations_participants"},
		"quizzes":                  {"idx_quizzes_subject", "idx_quizzes_interdisciplinary"},
		"exam_attempts":            {"idx_attempts_state_quiz_resident", "idx_attempts_resident_created"},
		"competency_evaluations":   {"idx_comp_resident_rotation"},
		"presentation_evaluations": {"idx_pres_resident_rotation"},
	}
	for coll, want := range expected {
		names := indexNames(t, db, coll)
		for _, name := range want {
			if _, ok := names[name]; !ok {
				t.Errorf("expected index %q on %s", name, coll)
			}
		}
	}
}

func TestEnsureAll_RenamesMisnamedIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Same keys, legacy name.
	_, err := db.Collection("quizzes").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "subject_name", Value: 1}},
		Options: options.Index().SetName("subject_1_legacy"),
	})
	if err != nil {
		t.Fatalf("create legacy index: %v", err)
	}

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	names := indexNames(t, db, "quizzes")
	if _, ok := names["subject_1_legacy"]; ok {
		t.Error("expected legacy index to be replaced")
	}
	if _, ok := names["idx_quizzes_subject"]; !ok {
		t.Error("expected idx_quizzes_subject")
	}
}

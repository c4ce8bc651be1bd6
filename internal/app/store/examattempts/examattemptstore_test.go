package examattemptstore_test

import (
	"errors"
	"testing"

	examattemptstore "github.com/dalemusser/residenthub/internal/app/store/examattempts"
	"github.com/dalemusser/residenthub/internal/domain/models"
	"github.com/dalemusser/residenthub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Record(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := examattemptstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, err := store.Record(ctx, models.ExamAttempt{
		ResidentID: primitive.NewObjectID(),
		QuizID:     primitive.NewObjectID(),
		State:      models.AttemptSubmitted,
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if a.SubmittedAt == nil {
		t.Error("expected SubmittedAt for submitted attempt")
	}

	d, err := store.Record(ctx, models.ExamAttempt{ResidentID: a.ResidentID, QuizID: a.QuizID, State: models.AttemptDraft})
	if err != nil {
		t.Fatalf("Record draft failed: %v", err)
	}
	if d.SubmittedAt != nil {
		t.Error("expected no SubmittedAt for draft")
	}

	all, err := store.ListByResident(ctx, a.ResidentID)
	if err != nil {
		t.Fatalf("ListByResident failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 attempts, got %d", len(all))
	}
}

func TestStore_Record_UnknownState(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := examattemptstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Record(ctx, models.ExamAttempt{State: "finished"})
	if !errors.Is(err, examattemptstore.ErrUnknownState) {
		t.Errorf("expected ErrUnknownState, got %v", err)
	}
}

func TestStore_ListQualifying(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := examattemptstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	resident := primitive.NewObjectID()
	quiz := primitive.NewObjectID()
	for _, s := range []models.AttemptState{
		models.AttemptDraft, models.AttemptSubmitted, models.AttemptPendingReview,
		models.AttemptGraded, models.AttemptAbandoned,
	} {
		fx.CreateAttempt(ctx, resident, quiz, s)
	}

	got, err := store.ListQualifying(ctx)
	if err != nil {
		t.Fatalf("ListQualifying failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 qualifying attempts, got %d", len(got))
	}
	for _, a := range got {
		if !a.State.HasWrittenGrade() {
			t.Errorf("unexpected state %q", a.State)
		}
		if a.ResidentID != resident || a.QuizID != quiz {
			t.Error("expected projected ids to be loaded")
		}
	}
}

// Package compliancesnapshot loads the inputs of the obligation rules in one
// consistent read.
package compliancesnapshot

import (
	"context"
	"fmt"

	catalogstore "github.com/dalemusser/residenthub/internal/app/store/catalog"
	evaluationstore "github.com/dalemusser/residenthub/internal/app/store/evaluations"
	examattemptstore "github.com/dalemusser/residenthub/internal/app/store/examattempts"
	quizstore "github.com/dalemusser/residenthub/internal/app/store/quizzes"
	"github.com/dalemusser/residenthub/internal/app/system/txn"
	"github.com/dalemusser/residenthub/internal/domain/compliance"
	"github.com/dalemusser/residenthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// Loader reads rotations, residents, quizzes, qualifying exam attempts and
// both evaluation collections.
type Loader struct {
	reader       *txn.Reader
	catalog      *catalogstore.Store
	quizzes      *quizstore.Store
	attempts     *examattemptstore.Store
	competency   *evaluationstore.Store
	presentation *evaluationstore.Store
}

// New builds a Loader over db. reader decides whether the six reads share a
// snapshot session.
func New(db *mongo.Database, reader *txn.Reader) *Loader {
	return &Loader{
		reader:       reader,
		catalog:      catalogstore.New(db),
		quizzes:      quizstore.New(db),
		attempts:     examattemptstore.New(db),
		competency:   evaluationstore.New(db, models.ObligationCompetency),
		presentation: evaluationstore.New(db, models.ObligationPresentation),
	}
}

// Load returns one snapshot of every input collection.
func (l *Loader) Load(ctx context.Context) (compliance.Snapshot, error) {
	var snap compliance.Snapshot
	err := l.reader.Read(ctx, func(ctx context.Context) error {
		snap = compliance.Snapshot{}
		var err error
		if snap.Rotations, err = l.catalog.ListRotations(ctx); err != nil {
			return fmt.Errorf("load rotations: %w", err)
		}
		if snap.Residents, err = l.catalog.ListResidents(ctx); err != nil {
			return fmt.Errorf("load residents: %w", err)
		}
		if snap.Quizzes, err = l.quizzes.List(ctx); err != nil {
			return fmt.Errorf("load quizzes: %w", err)
		}
		if snap.Attempts, err = l.attempts.ListQualifying(ctx); err != nil {
			return fmt.Errorf("load exam attempts: %w", err)
		}
		if snap.Competency, err = l.competency.ListKeys(ctx); err != nil {
			return fmt.Errorf("load competency evaluations: %w", err)
		}
		if snap.Presentation, err = l.presentation.ListKeys(ctx); err != nil {
			return fmt.Errorf("load presentation evaluations: %w", err)
		}
		return nil
	})
	if err != nil {
		return compliance.Snapshot{}, err
	}
	return snap, nil
}

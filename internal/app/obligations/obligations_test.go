package obligations_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dalemusser/residenthub/internal/app/obligations"
	"github.com/dalemusser/residenthub/internal/app/system/metrics"
	"github.com/dalemusser/residenthub/internal/domain/compliance"
	"github.com/dalemusser/residenthub/internal/domain/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeSource struct {
	snap  compliance.Snapshot
	err   error
	calls atomic.Int32
	gate  chan struct{}
}

func (f *fakeSource) Load(ctx context.Context) (compliance.Snapshot, error) {
	f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return compliance.Snapshot{}, ctx.Err()
		}
	}
	return f.snap, f.err
}

// scenarioB: a submitted attempt on rotation X's quiz, no competency record,
// an existing presentation record.
func scenarioB() (compliance.Snapshot, models.Resident, models.Rotation, primitive.ObjectID) {
	teacher := primitive.NewObjectID()
	rot := models.Rotation{ID: primitive.NewObjectID(), Name: "X", NameCI: "x", LeadTeacherID: teacher}
	res := models.Resident{ID: primitive.NewObjectID(), FullName: "R", FullNameCI: "r"}
	quiz := models.Quiz{ID: primitive.NewObjectID(), SubjectName: "X"}
	return compliance.Snapshot{
		Rotations: []models.Rotation{rot},
		Residents: []models.Resident{res},
		Quizzes:   []models.Quiz{quiz},
		Attempts: []models.ExamAttempt{
			{ID: primitive.NewObjectID(), ResidentID: res.ID, QuizID: quiz.ID, State: models.AttemptSubmitted},
		},
		Presentation: []models.Evaluation{{ID: primitive.NewObjectID(), ResidentID: res.ID, RotationID: rot.ID}},
	}, res, rot, teacher
}

func TestCompute_ScenarioB(t *testing.T) {
	snap, res, rot, teacher := scenarioB()
	m := metrics.New(prometheus.NewRegistry())
	svc := obligations.New(&fakeSource{snap: snap}, m, zap.NewNop())

	got, err := svc.Compute(context.Background(), compliance.TeacherScope(teacher), compliance.Filter{RotationID: rot.ID})
	require.NoError(t, err)
	assert.Equal(t, []models.Obligation{
		{ResidentID: res.ID, RotationID: rot.ID, Kind: models.ObligationCompetency},
	}, got)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Obligations.WithLabelValues("competency", "teacher")))
}

func TestCompute_EmptyIsNotNil(t *testing.T) {
	svc := obligations.New(&fakeSource{}, nil, nil)

	got, err := svc.Compute(context.Background(), compliance.AdminScope(), compliance.Filter{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCompute_OutOfScopeTeacher(t *testing.T) {
	snap, _, _, _ := scenarioB()
	svc := obligations.New(&fakeSource{snap: snap}, nil, zap.NewNop())

	got, err := svc.Compute(context.Background(), compliance.TeacherScope(primitive.NewObjectID()), compliance.Filter{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCompute_SourceError(t *testing.T) {
	boom := errors.New("boom")
	svc := obligations.New(&fakeSource{err: boom}, nil, zap.NewNop())

	_, err := svc.Compute(context.Background(), compliance.AdminScope(), compliance.Filter{})
	assert.ErrorIs(t, err, boom)
}

func TestCompute_ConcurrentIdenticalRequestsShareOneLoad(t *testing.T) {
	snap, _, _, _ := scenarioB()
	src := &fakeSource{snap: snap, gate: make(chan struct{})}
	svc := obligations.New(src, metrics.New(prometheus.NewRegistry()), zap.NewNop())

	const callers = 5
	results := make([][]models.Obligation, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := svc.Compute(context.Background(), compliance.AdminScope(), compliance.Filter{})
			assert.NoError(t, err)
			results[i] = got
		}(i)
	}

	// Let every caller reach the in-flight call before releasing the load.
	time.Sleep(50 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
	for _, r := range results {
		assert.Len(t, r, 1)
	}

	// Callers own their slices.
	results[0][0].Kind = "changed"
	assert.Equal(t, models.ObligationCompetency, results[1][0].Kind)
}

func TestCompute_CancelledCallerDoesNotFailOthers(t *testing.T) {
	snap, _, _, _ := scenarioB()
	src := &fakeSource{snap: snap, gate: make(chan struct{})}
	svc := obligations.New(src, nil, zap.NewNop())

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Compute(firstCtx, compliance.AdminScope(), compliance.Filter{})
		firstErr <- err
	}()
	time.Sleep(20 * time.Millisecond)

	type result struct {
		got []models.Obligation
		err error
	}
	second := make(chan result, 1)
	go func() {
		got, err := svc.Compute(context.Background(), compliance.AdminScope(), compliance.Filter{})
		second <- result{got, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(src.gate)
	select {
	case r := <-second:
		require.NoError(t, r.err)
		assert.Len(t, r.got, 1)
	case <-time.After(time.Second):
		t.Fatal("second caller did not return")
	}
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestCompute_DifferentScopesLoadSeparately(t *testing.T) {
	snap, _, _, teacher := scenarioB()
	src := &fakeSource{snap: snap}
	svc := obligations.New(src, nil, zap.NewNop())

	_, err := svc.Compute(context.Background(), compliance.AdminScope(), compliance.Filter{})
	require.NoError(t, err)
	_, err = svc.Compute(context.Background(), compliance.TeacherScope(teacher), compliance.Filter{})
	require.NoError(t, err)

	assert.Equal(t, int32(2), src.calls.Load())
}

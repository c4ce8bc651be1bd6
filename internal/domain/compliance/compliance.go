// Package compliance derives the outstanding evaluation obligations of
// residents from a snapshot of rotations, residents, exam attempts and
// evaluation records.
//
// The derivation is a pure function of its inputs. A resident owes
// evaluations on a rotation only once they have a written grade there: an
// exam attempt in a qualifying state on one of the rotation's quizzes. From
// then on a missing competency record and a missing presentation record each
// produce one obligation.
package compliance

import (
	"sort"

	"github.com/dalemusser/residenthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Snapshot is one consistent read of every input collection.
type Snapshot struct {
	Rotations    []models.Rotation
	Residents    []models.Resident
	Quizzes      []models.Quiz
	Attempts     []models.ExamAttempt
	Competency   []models.Evaluation
	Presentation []models.Evaluation
}

// Filter narrows a computation beyond the scope. The zero value filters
// nothing.
type Filter struct {
	RotationID primitive.ObjectID
}

func (f Filter) allows(r models.Rotation) bool {
	return f.RotationID.IsZero() || f.RotationID == r.ID
}

type pair struct {
	resident primitive.ObjectID
	rotation primitive.ObjectID
}

// index holds the lookup maps built once per snapshot.
type index struct {
	quizzesBySubject  map[string][]primitive.ObjectID
	interdisciplinary []primitive.ObjectID
	graded            map[primitive.ObjectID]map[primitive.ObjectID]struct{} // quiz -> residents with a written grade
	competency        map[pair]struct{}
	presentation      map[pair]struct{}
}

func buildIndex(snap Snapshot) index {
	ix := index{
		quizzesBySubject: make(map[string][]primitive.ObjectID),
		graded:           make(map[primitive.ObjectID]map[primitive.ObjectID]struct{}),
		competency:       make(map[pair]struct{}, len(snap.Competency)),
		presentation:     make(map[pair]struct{}, len(snap.Presentation)),
	}

	known := make(map[primitive.ObjectID]struct{}, len(snap.Quizzes))
	for _, q := range snap.Quizzes {
		known[q.ID] = struct{}{}
		if q.Interdisciplinary {
			ix.interdisciplinary = append(ix.interdisciplinary, q.ID)
			continue
		}
		ix.quizzesBySubject[q.SubjectName] = append(ix.quizzesBySubject[q.SubjectName], q.ID)
	}

	for _, a := range snap.Attempts {
		if !a.State.HasWrittenGrade() {
			continue
		}
		// Attempts on quizzes that no longer exist match nothing.
		if _, ok := known[a.QuizID]; !ok {
			continue
		}
		set := ix.graded[a.QuizID]
		if set == nil {
			set = make(map[primitive.ObjectID]struct{})
			ix.graded[a.QuizID] = set
		}
		set[a.ResidentID] = struct{}{}
	}

	for _, e := range snap.Competency {
		ix.competency[pair{e.ResidentID, e.RotationID}] = struct{}{}
	}
	for _, e := range snap.Presentation {
		ix.presentation[pair{e.ResidentID, e.RotationID}] = struct{}{}
	}
	return ix
}

// gradedResidents returns the residents holding a written grade on any quiz
// belonging to rotation r.
func (ix index) gradedResidents(r models.Rotation) map[primitive.ObjectID]struct{} {
	out := make(map[primitive.ObjectID]struct{})
	add := func(quizIDs []primitive.ObjectID) {
		for _, q := range quizIDs {
			for res := range ix.graded[q] {
				out[res] = struct{}{}
			}
		}
	}
	add(ix.quizzesBySubject[r.Name])
	add(ix.interdisciplinary)
	return out
}

// Compute returns the obligations outstanding inside scope, ordered by
// rotation (name, id), then resident (name, id), then kind.
func Compute(snap Snapshot, scope Scope, filter Filter) []models.Obligation {
	ix := buildIndex(snap)

	rotations := make([]models.Rotation, 0, len(snap.Rotations))
	for _, r := range snap.Rotations {
		if scope.Covers(r) && filter.allows(r) {
			rotations = append(rotations, r)
		}
	}
	sort.SliceStable(rotations, func(i, j int) bool {
		return less(rotations[i].NameCI, rotations[i].Name, rotations[i].ID,
			rotations[j].NameCI, rotations[j].Name, rotations[j].ID)
	})

	residents := append([]models.Resident(nil), snap.Residents...)
	sort.SliceStable(residents, func(i, j int) bool {
		return less(residents[i].FullNameCI, residents[i].FullName, residents[i].ID,
			residents[j].FullNameCI, residents[j].FullName, residents[j].ID)
	})

	var out []models.Obligation
	for _, r := range rotations {
		graded := ix.gradedResidents(r)
		if len(graded) == 0 {
			continue
		}
		for _, s := range residents {
			if _, ok := graded[s.ID]; !ok {
				continue
			}
			key := pair{s.ID, r.ID}
			if _, ok := ix.competency[key]; !ok {
				out = append(out, models.Obligation{ResidentID: s.ID, RotationID: r.ID, Kind: models.ObligationCompetency})
			}
			if _, ok := ix.presentation[key]; !ok {
				out = append(out, models.Obligation{ResidentID: s.ID, RotationID: r.ID, Kind: models.ObligationPresentation})
			}
		}
	}
	return out
}

// Count tallies obligations per kind.
func Count(obligations []models.Obligation) map[models.ObligationKind]int {
	out := map[models.ObligationKind]int{
		models.ObligationCompetency:   0,
		models.ObligationPresentation: 0,
	}
	for _, o := range obligations {
		out[o.Kind]++
	}
	return out
}

func less(aCI, aName string, aID primitive.ObjectID, bCI, bName string, bID primitive.ObjectID) bool {
	if aCI != bCI {
		return aCI < bCI
	}
	if aName != bName {
		return aName < bName
	}
	return aID.Hex() < bID.Hex()
}

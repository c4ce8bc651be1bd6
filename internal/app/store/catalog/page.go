package catalogstore

import (
	"context"

	"github.com/dalemusser/residenthub/internal/app/system/paging"
	"github.com/dalemusser/residenthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PageRotations returns one keyset page of rotations ordered by folded name.
func (s *Store) PageRotations(ctx context.Context, req paging.Request) ([]models.Rotation, paging.Result, error) {
	rows := []models.Rotation{}
	cfg := paging.ConfigureKeyset(req)
	if err := findPage(ctx, s.rotations, cfg, "name_ci", &rows); err != nil {
		return nil, paging.Result{}, err
	}
	res := paging.Finish(&rows, cfg,
		func(r models.Rotation) string { return r.NameCI },
		func(r models.Rotation) primitive.ObjectID { return r.ID })
	return rows, res, nil
}

// PageResidents returns one keyset page of residents ordered by folded name.
func (s *Store) PageResidents(ctx context.Context, req paging.Request) ([]models.Resident, paging.Result, error) {
	rows := []models.Resident{}
	cfg := paging.ConfigureKeyset(req)
	if err := findPage(ctx, s.residents, cfg, "full_name_ci", &rows); err != nil {
		return nil, paging.Result{}, err
	}
	res := paging.Finish(&rows, cfg,
		func(r models.Resident) string { return r.FullNameCI },
		func(r models.Resident) primitive.ObjectID { return r.ID })
	return rows, res, nil
}

func findPage[T any](ctx context.Context, coll *mongo.Collection, cfg paging.KeysetConfig, sortField string, out *[]T) error {
	filter := bson.M{}
	if w := cfg.KeysetWindow(sortField); w != nil {
		filter = w
	}
	find := options.Find()
	cfg.ApplyToFind(find, sortField)

	cur, err := coll.Find(ctx, filter, find)
	if err != nil {
		return err
	}
	defer cur.Close(ctx)
	return cur.All(ctx, out)
}

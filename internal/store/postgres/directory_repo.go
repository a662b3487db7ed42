package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"gymflow/backend/internal/domain"
	"gymflow/backend/internal/store"
)

type DirectoryRepo struct {
	db bun.IDB
}

func NewDirectoryRepo(db bun.IDB) *DirectoryRepo {
	return &DirectoryRepo{db: db}
}

func (r *DirectoryRepo) ResolveTrainingType(ctx context.Context, id string) (domain.TrainingType, error) {
	var m domain.TrainingType
	err := r.db.NewSelect().Model(&m).Where("id = ?", id).Limit(1).Scan(ctx)
	return m, lookupError(err)
}

func (r *DirectoryRepo) ResolveTrainer(ctx context.Context, id string) (domain.Trainer, error) {
	var m domain.Trainer
	err := r.db.NewSelect().Model(&m).Where("id = ?", id).Limit(1).Scan(ctx)
	return m, lookupError(err)
}

func (r *DirectoryRepo) ResolveLocation(ctx context.Context, id string) (domain.Location, error) {
	var m domain.Location
	err := r.db.NewSelect().Model(&m).Where("id = ?", id).Limit(1).Scan(ctx)
	return m, lookupError(err)
}

func lookupError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

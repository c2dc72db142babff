// Package remote implements the repositories over the hosted row store.
package remote

import (
	"context"
	"fmt"

	"github.com/jwalitptl/clinical-records/internal/model"
	"github.com/jwalitptl/clinical-records/internal/repository"
	"github.com/jwalitptl/clinical-records/internal/store"
)

type userRepository struct {
	rows store.RowStore
}

func NewUserRepository(rows store.RowStore) repository.UserRepository {
	return &userRepository{rows: rows}
}

func (r *userRepository) Get(ctx context.Context, id string) (*model.User, error) {
	row, err := r.rows.QueryOne(ctx, model.TableUsers, store.Where(store.Eq("id", id)))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	var u model.User
	if err := repository.DecodeRow(row, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) ListByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	rows, err := r.rows.Query(ctx, model.TableUsers, store.Where(store.In("id", ids)), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return repository.DecodeRows[model.User](rows)
}

func (r *userRepository) ListDoctors(ctx context.Context) ([]*model.User, error) {
	rows, err := r.rows.Query(ctx, model.TableUsers,
		store.Where(store.Eq("profession", string(model.ProfessionDoctor))),
		&store.Order{Column: "created_at"})
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return repository.DecodeRows[model.User](rows)
}

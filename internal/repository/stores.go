package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/price-tracker/internal/common"
	"github.com/joseph-ayodele/price-tracker/internal/entity"
)

var storeSelectColumns = []string{"id", "store_name", "channel", "branch", "manager", "created_at", "updated_at"}

// StoreRepository persists stores.
type StoreRepository interface {
	// Create inserts a store, or returns the existing one with the same name.
	Create(ctx context.Context, s entity.Store) (*entity.Store, bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Store, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, filter entity.StoreFilter) ([]entity.Store, error)
	Update(ctx context.Context, id uuid.UUID, upd entity.StoreUpdate) (*entity.Store, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int, error)
}

type storeRepository struct {
	db     *DB
	logger *slog.Logger
	now    func() time.Time
}

func NewStoreRepository(db *DB, logger *slog.Logger) StoreRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &storeRepository{db: db, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

func (r *storeRepository) Create(ctx context.Context, s entity.Store) (*entity.Store, bool, error) {
	type result struct {
		store   *entity.Store
		created bool
	}
	res, err := WithTx(ctx, r.db.SQL, func(tx *sql.Tx) (result, error) {
		existing, err := r.getByName(ctx, tx, s.StoreName)
		if err == nil {
			return result{store: existing}, nil
		}
		if !errors.Is(err, common.ErrNotFound) {
			return result{}, err
		}

		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		now := r.now()
		s.CreatedAt, s.UpdatedAt = now, now
		query, args := r.db.Builder().Insert(tableStores).
			Columns(storeSelectColumns...).
			Values(s.ID, s.StoreName, nullPtr(s.Channel), nullPtr(s.Branch), nullPtr(s.Manager), s.CreatedAt, s.UpdatedAt).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return result{}, MapError(err)
		}
		return result{store: &s, created: true}, nil
	})
	if err != nil {
		r.logger.Error("failed to create store", "store_name", s.StoreName, "error", err)
		return nil, false, err
	}
	return res.store, res.created, nil
}

func (r *storeRepository) getByName(ctx context.Context, q Querier, name string) (*entity.Store, error) {
	return r.getOne(ctx, q, entsql.EQ("store_name", name))
}

func (r *storeRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Store, error) {
	s, err := r.getOne(ctx, r.db.SQL, entsql.EQ("id", id))
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.NotFoundf("store %s", id)
	}
	return s, err
}

func (r *storeRepository) getOne(ctx context.Context, q Querier, p *entsql.Predicate) (*entity.Store, error) {
	query, args := r.db.Builder().Select(storeSelectColumns...).
		From(r.db.Builder().Table(tableStores)).
		Where(p).
		Query()
	s, err := QueryOne(ctx, q, query, args, scanStore)
	if err != nil {
		return nil, MapError(err)
	}
	return &s, nil
}

func (r *storeRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	query, args := r.db.Builder().Select().
		From(r.db.Builder().Table(tableStores)).
		Where(entsql.EQ("id", id)).
		Count().
		Query()
	n, err := queryCount(ctx, r.db.SQL, query, args)
	if err != nil {
		r.logger.Error("failed to check store", "id", id, "error", err)
		return false, err
	}
	return n > 0, nil
}

func (r *storeRepository) List(ctx context.Context, filter entity.StoreFilter) ([]entity.Store, error) {
	sel := r.db.Builder().Select(storeSelectColumns...).
		From(r.db.Builder().Table(tableStores)).
		OrderBy(entsql.Asc("store_name"))
	var preds []*entsql.Predicate
	if filter.StoreName != "" {
		preds = append(preds, entsql.ContainsFold("store_name", filter.StoreName))
	}
	if filter.Channel != "" {
		preds = append(preds, entsql.ContainsFold("channel", filter.Channel))
	}
	if filter.Branch != "" {
		preds = append(preds, entsql.ContainsFold("branch", filter.Branch))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	query, args := sel.Query()
	stores, err := QueryMany(ctx, r.db.SQL, query, args, scanStore)
	if err != nil {
		r.logger.Error("failed to list stores", "error", err)
		return nil, err
	}
	return stores, nil
}

func (r *storeRepository) Update(ctx context.Context, id uuid.UUID, upd entity.StoreUpdate) (*entity.Store, error) {
	return WithTx(ctx, r.db.SQL, func(tx *sql.Tx) (*entity.Store, error) {
		s, err := r.getOne(ctx, tx, entsql.EQ("id", id))
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NotFoundf("store %s", id)
		}
		if err != nil {
			return nil, err
		}
		if upd.StoreName != nil {
			s.StoreName = *upd.StoreName
		}
		if upd.Channel != nil {
			s.Channel = upd.Channel
		}
		if upd.Branch != nil {
			s.Branch = upd.Branch
		}
		if upd.Manager != nil {
			s.Manager = upd.Manager
		}
		s.UpdatedAt = r.now()
		query, args := r.db.Builder().Update(tableStores).
			Set("store_name", s.StoreName).
			Set("channel", nullPtr(s.Channel)).
			Set("branch", nullPtr(s.Branch)).
			Set("manager", nullPtr(s.Manager)).
			Set("updated_at", s.UpdatedAt).
			Where(entsql.EQ("id", id)).
			Query()
		if err := ExecExpectOne(ctx, tx, query, args...); err != nil {
			r.logger.Error("failed to update store", "id", id, "error", err)
			return nil, MapError(err)
		}
		return s, nil
	})
}

func (r *storeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query, args := r.db.Builder().Delete(tableStores).Where(entsql.EQ("id", id)).Query()
	err := ExecExpectOne(ctx, r.db.SQL, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return common.NotFoundf("store %s", id)
	}
	if err != nil {
		r.logger.Error("failed to delete store", "id", id, "error", err)
		return err
	}
	return nil
}

func (r *storeRepository) Count(ctx context.Context) (int, error) {
	query, args := r.db.Builder().Select().From(r.db.Builder().Table(tableStores)).Count().Query()
	return queryCount(ctx, r.db.SQL, query, args)
}

func scanStore(s Scanner) (entity.Store, error) {
	var (
		st                       entity.Store
		channel, branch, manager sql.NullString
	)
	if err := s.Scan(&st.ID, &st.StoreName, &channel, &branch, &manager, &st.CreatedAt, &st.UpdatedAt); err != nil {
		return entity.Store{}, err
	}
	st.Channel = strPtr(channel)
	st.Branch = strPtr(branch)
	st.Manager = strPtr(manager)
	st.CreatedAt = st.CreatedAt.UTC()
	st.UpdatedAt = st.UpdatedAt.UTC()
	return st, nil
}

func nullPtr(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

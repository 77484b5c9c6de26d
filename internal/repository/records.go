package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/price-tracker/constants"
	"github.com/joseph-ayodele/price-tracker/internal/common"
	"github.com/joseph-ayodele/price-tracker/internal/entity"
)

var recordSelectColumns = []string{
	"id", "product_name", "price", "image_path", "confidence_score", "status",
	"extracted_at", "metadata", "store_id", "created_at", "updated_at",
}

// RecordRepository persists extracted price records.
type RecordRepository interface {
	// CreateBatch inserts all records in one transaction; either all are stored or none.
	CreateBatch(ctx context.Context, recs []entity.ExtractedRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.ExtractedRecord, error)
	// Review loads a record, lets fn mutate it and writes name, price and status back, atomically.
	Review(ctx context.Context, id uuid.UUID, fn func(*entity.ExtractedRecord) error) (*entity.ExtractedRecord, error)
	List(ctx context.Context, filter entity.RecordFilter, page entity.Page) ([]entity.ExtractedRecord, int, error)
	ListAll(ctx context.Context, filter entity.RecordFilter) ([]entity.ExtractedRecord, error)
	Count(ctx context.Context, filter entity.RecordFilter) (int, error)
}

type recordRepository struct {
	db     *DB
	logger *slog.Logger
	now    func() time.Time
}

func NewRecordRepository(db *DB, logger *slog.Logger) RecordRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &recordRepository{db: db, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

func (r *recordRepository) CreateBatch(ctx context.Context, recs []entity.ExtractedRecord) error {
	if len(recs) == 0 {
		return nil
	}
	now := r.now()
	_, err := WithTx(ctx, r.db.SQL, func(tx *sql.Tx) (struct{}, error) {
		for i := range recs {
			if recs[i].CreatedAt.IsZero() {
				recs[i].CreatedAt = now
			}
			recs[i].UpdatedAt = now
			query, args, err := r.insertQuery(&recs[i])
			if err != nil {
				return struct{}{}, err
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return struct{}{}, fmt.Errorf("insert record %d: %w", i, MapError(err))
			}
		}
		return struct{}{}, nil
	})
	if err != nil {
		r.logger.Error("failed to create records", "count", len(recs), "error", err)
		return err
	}
	return nil
}

func (r *recordRepository) insertQuery(rec *entity.ExtractedRecord) (string, []any, error) {
	meta, err := encodeMetadata(rec.Metadata)
	if err != nil {
		return "", nil, err
	}
	query, args := r.db.Builder().Insert(tableRecords).
		Columns(recordSelectColumns...).
		Values(
			rec.ID,
			rec.ProductName,
			rec.Price,
			nullString(rec.ImagePath),
			nullFloat(rec.ConfidenceScore),
			string(rec.Status),
			rec.ExtractedAt.UTC(),
			meta,
			nullUUID(rec.StoreID),
			rec.CreatedAt.UTC(),
			rec.UpdatedAt.UTC(),
		).Query()
	return query, args, nil
}

func (r *recordRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.ExtractedRecord, error) {
	rec, err := r.getByID(ctx, r.db.SQL, id)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *recordRepository) getByID(ctx context.Context, q Querier, id uuid.UUID) (*entity.ExtractedRecord, error) {
	query, args := r.db.Builder().Select(recordSelectColumns...).
		From(r.db.Builder().Table(tableRecords)).
		Where(entsql.EQ("id", id)).
		Query()
	rec, err := QueryOne(ctx, q, query, args, scanRecord)
	if err != nil {
		err = MapError(err)
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NotFoundf("record %s", id)
		}
		r.logger.Error("failed to get record", "id", id, "error", err)
		return nil, err
	}
	return &rec, nil
}

func (r *recordRepository) Review(ctx context.Context, id uuid.UUID, fn func(*entity.ExtractedRecord) error) (*entity.ExtractedRecord, error) {
	return WithTx(ctx, r.db.SQL, func(tx *sql.Tx) (*entity.ExtractedRecord, error) {
		return r.review(ctx, tx, id, fn)
	})
}

// review reads and writes through the same handle so both run in one transaction.
func (r *recordRepository) review(ctx context.Context, db DBTX, id uuid.UUID, fn func(*entity.ExtractedRecord) error) (*entity.ExtractedRecord, error) {
	rec, err := r.getByID(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if err := fn(rec); err != nil {
		return nil, err
	}
	rec.UpdatedAt = r.now()
	query, args := r.db.Builder().Update(tableRecords).
		Set("product_name", rec.ProductName).
		Set("price", rec.Price).
		Set("status", string(rec.Status)).
		Set("updated_at", rec.UpdatedAt).
		Where(entsql.EQ("id", id)).
		Query()
	if err := ExecExpectOne(ctx, db, query, args...); err != nil {
		r.logger.Error("failed to update record", "id", id, "error", err)
		return nil, MapError(err)
	}
	return rec, nil
}

func (r *recordRepository) List(ctx context.Context, filter entity.RecordFilter, page entity.Page) ([]entity.ExtractedRecord, int, error) {
	page = page.Normalize()
	total, err := r.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []entity.ExtractedRecord{}, 0, nil
	}
	sel := r.selectRecords(filter).Limit(page.Size).Offset(page.Offset())
	query, args := sel.Query()
	recs, err := QueryMany(ctx, r.db.SQL, query, args, scanRecord)
	if err != nil {
		r.logger.Error("failed to list records", "error", err)
		return nil, 0, err
	}
	return recs, total, nil
}

func (r *recordRepository) ListAll(ctx context.Context, filter entity.RecordFilter) ([]entity.ExtractedRecord, error) {
	query, args := r.selectRecords(filter).Query()
	recs, err := QueryMany(ctx, r.db.SQL, query, args, scanRecord)
	if err != nil {
		r.logger.Error("failed to list records", "error", err)
		return nil, err
	}
	return recs, nil
}

func (r *recordRepository) Count(ctx context.Context, filter entity.RecordFilter) (int, error) {
	sel := r.db.Builder().Select().From(r.db.Builder().Table(tableRecords))
	if p := recordPredicate(filter); p != nil {
		sel.Where(p)
	}
	query, args := sel.Count().Query()
	n, err := queryCount(ctx, r.db.SQL, query, args)
	if err != nil {
		r.logger.Error("failed to count records", "error", err)
		return 0, err
	}
	return n, nil
}

func (r *recordRepository) selectRecords(filter entity.RecordFilter) *entsql.Selector {
	sel := r.db.Builder().Select(recordSelectColumns...).
		From(r.db.Builder().Table(tableRecords)).
		OrderBy(entsql.Desc("extracted_at"), entsql.Asc("product_name"))
	if p := recordPredicate(filter); p != nil {
		sel.Where(p)
	}
	return sel
}

func recordPredicate(f entity.RecordFilter) *entsql.Predicate {
	var preds []*entsql.Predicate
	if f.ProductName != "" {
		preds = append(preds, entsql.ContainsFold("product_name", f.ProductName))
	}
	if f.StoreID != nil {
		preds = append(preds, entsql.EQ("store_id", *f.StoreID))
	}
	if f.Status != "" {
		preds = append(preds, entsql.EQ("status", string(f.Status)))
	}
	if f.From != nil {
		preds = append(preds, entsql.GTE("extracted_at", f.From.UTC()))
	}
	if f.To != nil {
		preds = append(preds, entsql.LT("extracted_at", f.To.UTC()))
	}
	switch len(preds) {
	case 0:
		return nil
	case 1:
		return preds[0]
	default:
		return entsql.And(preds...)
	}
}

func scanRecord(s Scanner) (entity.ExtractedRecord, error) {
	var (
		rec        entity.ExtractedRecord
		imagePath  sql.NullString
		confidence sql.NullFloat64
		status     string
		meta       []byte
		storeID    uuid.NullUUID
	)
	err := s.Scan(
		&rec.ID,
		&rec.ProductName,
		&rec.Price,
		&imagePath,
		&confidence,
		&status,
		&rec.ExtractedAt,
		&meta,
		&storeID,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return entity.ExtractedRecord{}, err
	}
	rec.ImagePath = imagePath.String
	if confidence.Valid {
		c := confidence.Float64
		rec.ConfidenceScore = &c
	}
	rec.Status = constants.RecordStatus(status)
	if storeID.Valid {
		id := storeID.UUID
		rec.StoreID = &id
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &rec.Metadata); err != nil {
			return entity.ExtractedRecord{}, fmt.Errorf("decode metadata: %w", err)
		}
	}
	rec.ExtractedAt = rec.ExtractedAt.UTC()
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return rec, nil
}

func encodeMetadata(m map[string]any) (any, error) {
	if len(m) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return string(b), nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func nullUUID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return *id
}

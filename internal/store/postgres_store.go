package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/mohamedkhairy/stock-advisor/internal/models"
)

// PostgresStore persists recommendations and saved screens in PostgreSQL.
// Record payloads are stored as JSONB so the schema does not chase the model.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool and verifies connectivity.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	store := &PostgresStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS recommendations (
		trade_date TEXT NOT NULL,
		position   INT  NOT NULL,
		payload    JSONB NOT NULL,
		PRIMARY KEY (trade_date, position)
	);
	CREATE TABLE IF NOT EXISTS screen_records (
		id         TEXT PRIMARY KEY,
		payload    JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Save replaces the recommendation set for date atomically.
func (s *PostgresStore) Save(ctx context.Context, date string, records []*models.StockRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save recommendations: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM recommendations WHERE trade_date = $1`, date); err != nil {
		return fmt.Errorf("clear recommendations: %w", err)
	}

	for i, record := range records {
		payload, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal recommendation: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recommendations (trade_date, position, payload) VALUES ($1, $2, $3)`,
			date, i, payload,
		); err != nil {
			return fmt.Errorf("insert recommendation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save recommendations: %w", err)
	}
	return nil
}

// List returns up to limit records for date in stored order. A non-positive
// limit returns all.
func (s *PostgresStore) List(ctx context.Context, date string, limit int) ([]*models.StockRecord, error) {
	query := `SELECT payload FROM recommendations WHERE trade_date = $1 ORDER BY position`
	args := []interface{}{date}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	defer rows.Close()

	records := []*models.StockRecord{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		var record models.StockRecord
		if err := json.Unmarshal(payload, &record); err != nil {
			return nil, fmt.Errorf("unmarshal recommendation: %w", err)
		}
		records = append(records, &record)
	}
	return records, rows.Err()
}

// SaveScreen stores a screening run.
func (s *PostgresStore) SaveScreen(ctx context.Context, record *models.ScreenRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal screen record: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO screen_records (id, payload, created_at) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload`,
		record.ID, payload, record.CreatedAt,
	); err != nil {
		return fmt.Errorf("save screen record: %w", err)
	}
	return nil
}

// ListScreens returns up to limit saved runs, newest first.
func (s *PostgresStore) ListScreens(ctx context.Context, limit int) ([]*models.ScreenRecord, error) {
	query := `SELECT payload FROM screen_records ORDER BY created_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list screen records: %w", err)
	}
	defer rows.Close()

	records := []*models.ScreenRecord{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan screen record: %w", err)
		}
		var record models.ScreenRecord
		if err := json.Unmarshal(payload, &record); err != nil {
			return nil, fmt.Errorf("unmarshal screen record: %w", err)
		}
		records = append(records, &record)
	}
	return records, rows.Err()
}

// GetScreen returns one saved run by id.
func (s *PostgresStore) GetScreen(ctx context.Context, id string) (*models.ScreenRecord, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM screen_records WHERE id = $1`, id,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get screen record: %w", err)
	}

	var record models.ScreenRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("unmarshal screen record: %w", err)
	}
	return &record, nil
}

// ScreenStore exposes the screen-record half of the store under the
// ScreenRecordStore interface.
func (s *PostgresStore) ScreenStore() ScreenRecordStore {
	return postgresScreenStore{s}
}

type postgresScreenStore struct{ s *PostgresStore }

func (p postgresScreenStore) Save(ctx context.Context, record *models.ScreenRecord) error {
	return p.s.SaveScreen(ctx, record)
}

func (p postgresScreenStore) List(ctx context.Context, limit int) ([]*models.ScreenRecord, error) {
	return p.s.ListScreens(ctx, limit)
}

func (p postgresScreenStore) Get(ctx context.Context, id string) (*models.ScreenRecord, error) {
	return p.s.GetScreen(ctx, id)
}

func (p postgresScreenStore) Delete(ctx context.Context, id string) error {
	return p.s.DeleteScreen(ctx, id)
}

// DeleteScreen removes one saved run by id.
func (s *PostgresStore) DeleteScreen(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM screen_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete screen record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete screen record: %w", err)
	}
	if affected == 0 {
		return models.ErrRecordNotFound
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/upmonhq/upmon/internal/common"
	"github.com/upmonhq/upmon/internal/store/migrations"
)

const pgUniqueViolation = "23505"

// Postgres keeps every record in a single records(collection, id, data)
// table, one row per key, so each operation stays a single atomic statement.
type Postgres struct {
	db *sql.DB
}

// NewPostgres opens a pgx-backed connection for the given DSN.
func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %v", common.ErrStore, err)
	}
	return &Postgres{db: db}, nil
}

// gooseUpContext is a seam for testing RunMigrations.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded goose migrations.
func (p *Postgres) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, p.db, ".")
}

// Close releases the underlying connection pool.
func (p *Postgres) Close() error { return p.db.Close() }

func (p *Postgres) Create(ctx context.Context, collection, id string, record any) error {
	b, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", common.ErrStore, err)
	}

	query := `
		INSERT INTO records (collection, id, data)
		VALUES ($1, $2, $3)
	`
	if _, err := p.db.ExecContext(ctx, query, collection, id, b); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("%w: create %s/%s: %v", common.ErrStore, collection, id, err)
	}
	return nil
}

func (p *Postgres) Read(ctx context.Context, collection, id string, out any) error {
	query := `
		SELECT data FROM records
		WHERE collection = $1 AND id = $2
	`
	var b []byte
	if err := p.db.QueryRowContext(ctx, query, collection, id).Scan(&b); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		return fmt.Errorf("%w: read %s/%s: %v", common.ErrStore, collection, id, err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("%w: unmarshal %s/%s: %v", common.ErrStore, collection, id, err)
	}
	return nil
}

func (p *Postgres) Update(ctx context.Context, collection, id string, record any) error {
	b, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", common.ErrStore, err)
	}

	query := `
		UPDATE records SET data = $3, updated_at = now()
		WHERE collection = $1 AND id = $2
	`
	res, err := p.db.ExecContext(ctx, query, collection, id, b)
	if err != nil {
		return fmt.Errorf("%w: update %s/%s: %v", common.ErrStore, collection, id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: update %s/%s: %v", common.ErrStore, collection, id, err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, collection, id string) error {
	query := `
		DELETE FROM records
		WHERE collection = $1 AND id = $2
	`
	res, err := p.db.ExecContext(ctx, query, collection, id)
	if err != nil {
		return fmt.Errorf("%w: delete %s/%s: %v", common.ErrStore, collection, id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: delete %s/%s: %v", common.ErrStore, collection, id, err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

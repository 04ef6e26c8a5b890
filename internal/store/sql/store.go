package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/MrSnakeDoc/yaelah/internal/domain"
	"github.com/MrSnakeDoc/yaelah/internal/logger"
)

// Options configures the relational store.
type Options struct {
	Driver      string        // "sqlite3" | "postgres"
	DSN         string        // file path or ":memory:" for sqlite, URL for postgres
	UniqueAlias bool          // install a UNIQUE index on url.alias
	MaxOpenConn int           // ignored for sqlite, which is pinned to one connection
	ConnMaxIdle time.Duration // max idle time per pooled connection (0 = unlimited)
}

// Store persists mappings in a single "url" table.
type Store struct {
	db     *sql.DB
	driver string
	logger logger.Logger
	now    func() time.Time

	qFindByAlias string
	qFindByID    string
	qInsert      string
	qDeleteByID  string
}

// Open connects to the database, applies the schema and returns a ready Store.
func Open(ctx context.Context, opts Options, log logger.Logger) (*Store, error) {
	if _, ok := tableDDL[opts.Driver]; !ok {
		return nil, fmt.Errorf("unsupported driver %q", opts.Driver)
	}

	db, err := sql.Open(opts.Driver, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", opts.Driver, err)
	}

	if opts.Driver == DriverSQLite {
		// One connection keeps ":memory:" databases shared and serialises writers.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		if opts.MaxOpenConn > 0 {
			db.SetMaxOpenConns(opts.MaxOpenConn)
		}
		db.SetConnMaxIdleTime(opts.ConnMaxIdle)
	}

	s := &Store{
		db:     db,
		driver: opts.Driver,
		logger: log,
		now:    time.Now,

		qFindByAlias: rebind(opts.Driver, `SELECT id, alias, long_url, short_url, created_at FROM url WHERE alias = ? ORDER BY id ASC LIMIT 1`),
		qFindByID:    rebind(opts.Driver, `SELECT id, alias, long_url, short_url, created_at FROM url WHERE id = ?`),
		qInsert:      rebind(opts.Driver, `INSERT INTO url (short_url, long_url, alias, created_at) VALUES (?, ?, ?, ?) RETURNING id`),
		qDeleteByID:  rebind(opts.Driver, `DELETE FROM url WHERE id = ? RETURNING alias`),
	}

	if opts.Driver == DriverSQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
			log.Warn("failed to set sqlite busy_timeout", logger.Error(err))
		}
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach %s database: %w", opts.Driver, err)
	}

	if err := migrate(ctx, s, opts.UniqueAlias); err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Info("url store ready",
		logger.String("driver", opts.Driver),
		logger.Bool("unique_alias", opts.UniqueAlias))

	return s, nil
}

// FindByAlias returns the mapping for alias, or nil when none exists.
// If several rows share the alias the one with the lowest id wins.
func (s *Store) FindByAlias(ctx context.Context, alias string) (*domain.Mapping, error) {
	m, err := s.scanOne(s.db.QueryRowContext(ctx, s.qFindByAlias, alias))
	if err != nil {
		return nil, &domain.StoreError{Op: "find_by_alias", Err: err}
	}
	return m, nil
}

// FindByID returns the mapping with the given id, or nil when none exists.
func (s *Store) FindByID(ctx context.Context, id int64) (*domain.Mapping, error) {
	m, err := s.scanOne(s.db.QueryRowContext(ctx, s.qFindByID, id))
	if err != nil {
		return nil, &domain.StoreError{Op: "find_by_id", Err: err}
	}
	return m, nil
}

// Insert stores a new mapping and returns it with its id and creation time.
// A rejected alias yields domain.ErrDuplicateAlias.
func (s *Store) Insert(ctx context.Context, longURL, alias, shortURL string) (*domain.Mapping, error) {
	createdAt := s.now().UTC().Truncate(time.Microsecond)

	var id int64
	err := s.db.QueryRowContext(ctx, s.qInsert, shortURL, longURL, alias, createdAt).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateAlias
		}
		return nil, &domain.StoreError{Op: "insert", Err: err}
	}

	return &domain.Mapping{
		ID:        id,
		Alias:     alias,
		LongURL:   longURL,
		ShortURL:  shortURL,
		CreatedAt: createdAt,
	}, nil
}

// DeleteByID removes the mapping with the given id and returns its alias.
// Deleting an unknown id is not an error; the returned alias is then empty.
func (s *Store) DeleteByID(ctx context.Context, id int64) (string, error) {
	var alias string
	err := s.db.QueryRowContext(ctx, s.qDeleteByID, id).Scan(&alias)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", &domain.StoreError{Op: "delete", Err: err}
	}
	return alias, nil
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) scanOne(row *sql.Row) (*domain.Mapping, error) {
	var m domain.Mapping
	if err := row.Scan(&m.ID, &m.Alias, &m.LongURL, &m.ShortURL, &m.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	m.CreatedAt = m.CreatedAt.UTC()
	return &m, nil
}

// isUniqueViolation recognises unique-index rejections from both drivers.
func isUniqueViolation(err error) bool {
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// Package repository реализует хранилище подписок поверх database/sql.
// Поддерживаются PostgreSQL (драйвер pgx) и встроенный SQLite (драйвер sqlite).
// Все изменения подписки выполняются одной транзакцией вместе с погашением
// хэша транзакции, поэтому повторная заявка с тем же хэшем не может быть зачтена дважды.
package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	// Регистрация драйверов для database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	// DriverPostgres имя драйвера PostgreSQL.
	DriverPostgres = "pgx"
	// DriverSQLite имя драйвера встроенного SQLite.
	DriverSQLite = "sqlite"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Storage инкапсулирует соединение с базой данных.
type Storage struct {
	DB *sqlx.DB
	// lockRow добавляется к SELECT внутри транзакции продления.
	lockRow string
}

// New открывает соединение и проверяет его доступность.
func New(driver, dsn string) (*Storage, error) {
	const op = "storage.New"

	var lockRow string
	switch driver {
	case DriverPostgres:
		lockRow = " FOR UPDATE"
	case DriverSQLite:
	default:
		return nil, fmt.Errorf("%s: unsupported driver %q", op, driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if driver == DriverSQLite {
		// SQLite допускает одного писателя; одно соединение сериализует транзакции.
		db.SetMaxOpenConns(1)
	}
	if err = db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB:      db,
		lockRow: lockRow,
	}, nil
}

// DriverName возвращает имя драйвера database/sql.
func (s *Storage) DriverName() string {
	return s.DB.DriverName()
}

// Close закрывает соединение с базой.
func (s *Storage) Close() error {
	return s.DB.Close()
}

// CheckDatabaseReady проверяет, что схема создана.
func CheckDatabaseReady(ctx context.Context, storage *Storage) error {
	var n int
	if err := storage.DB.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`); err != nil {
		return fmt.Errorf("required table users missing or query error: %w", err)
	}
	return nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-mini-ledger/internal/app/core/domain"
)

// 查詢只用標準 SQL，測試時以 sqlite3 代替 Postgres
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.Exec(`CREATE TABLE accounts (id TEXT PRIMARY KEY, secret TEXT, balance TEXT NOT NULL)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

func TestLoadAllAccounts(t *testing.T) {
	db := newTestDB(t)
	_, err := db.Exec(`INSERT INTO accounts (id, secret, balance) VALUES ('user1', 'password123', '1000.0'), ('user0', NULL, '0.25')`)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	seeds, err := NewAccountSource(db).LoadAllAccounts(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(seeds) != 2 {
		t.Fatalf("seeds = %d, want 2", len(seeds))
	}
	if seeds[0].ID != "user0" || seeds[0].Secret != "" || !seeds[0].Balance.Equal(decimal.RequireFromString("0.25")) {
		t.Fatalf("unexpected seed %+v", seeds[0])
	}
	if seeds[1].ID != "user1" || seeds[1].Secret != "password123" || !seeds[1].Balance.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("unexpected seed %+v", seeds[1])
	}
}

func TestLoadAllAccountsRejectsNegativeBalance(t *testing.T) {
	db := newTestDB(t)
	if _, err := db.Exec(`INSERT INTO accounts (id, secret, balance) VALUES ('bad', 'x', '-3')`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := NewAccountSource(db).LoadAllAccounts(context.Background()); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

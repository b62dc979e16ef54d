package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-mini-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-mini-ledger/internal/app/core/usecase"
)

// DriverName database/sql 使用的 driver (github.com/lib/pq)
const DriverName = "postgres"

const selectAccounts = `SELECT id, secret, balance FROM accounts ORDER BY id`

// AccountSource 啟動時從 Postgres 載入開戶資料
type AccountSource struct {
	db *sql.DB
}

func NewAccountSource(db *sql.DB) *AccountSource {
	return &AccountSource{
		db: db,
	}
}

func (s *AccountSource) LoadAllAccounts(ctx context.Context) ([]domain.AccountSeed, error) {
	rows, err := s.db.QueryContext(ctx, selectAccounts)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var seeds []domain.AccountSeed
	for rows.Next() {
		var (
			seed    domain.AccountSeed
			secret  sql.NullString
			balance decimal.Decimal
		)
		if err := rows.Scan(&seed.ID, &secret, &balance); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		if balance.IsNegative() {
			return nil, fmt.Errorf("account %s: %w", seed.ID, domain.ErrInvalidAmount)
		}
		seed.Secret = secret.String
		seed.Balance = balance
		seeds = append(seeds, seed)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seeds, nil
}

var _ usecase.AccountSource = (*AccountSource)(nil)

package config

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-mini-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-mini-ledger/internal/app/core/usecase"
)

// StaticSource 從設定檔載入開戶資料
type StaticSource struct {
	accounts []SeedAccount
}

func NewStaticSource(accounts []SeedAccount) *StaticSource {
	return &StaticSource{accounts: accounts}
}

func (s *StaticSource) LoadAllAccounts(ctx context.Context) ([]domain.AccountSeed, error) {
	seeds := make([]domain.AccountSeed, 0, len(s.accounts))
	for _, account := range s.accounts {
		balance := decimal.Zero
		if account.Balance != "" {
			parsed, err := decimal.NewFromString(account.Balance)
			if err != nil {
				return nil, fmt.Errorf("account %s: invalid balance %q: %w", account.ID, account.Balance, err)
			}
			balance = parsed
		}
		seeds = append(seeds, domain.AccountSeed{
			ID:      account.ID,
			Secret:  account.Secret,
			Balance: balance,
		})
	}
	return seeds, nil
}

var _ usecase.AccountSource = (*StaticSource)(nil)

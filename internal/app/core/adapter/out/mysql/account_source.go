package mysql

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/JoeShih716/go-mini-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-mini-ledger/internal/app/core/usecase"
)

// sqlAccount 對應資料庫的 accounts 表
type sqlAccount struct {
	ID        string          `gorm:"primaryKey;size:64"`
	Secret    string          `gorm:"size:255"`
	Balance   decimal.Decimal `gorm:"type:decimal(20,4)"`
	UpdatedAt int64           `gorm:"autoUpdateTime:milli"` // 自動更新時間
}

func (*sqlAccount) TableName() string {
	return "accounts"
}

// AccountSource 啟動時從 MySQL 載入開戶資料。只讀，帳本不會寫回
type AccountSource struct {
	db *gorm.DB
}

func NewAccountSource(db *gorm.DB) *AccountSource {
	return &AccountSource{
		db: db,
	}
}

// LoadAllAccounts 載入所有帳戶
//
// 參數:
//
//	ctx: 上下文
//
// 回傳:
//
//	[]domain.AccountSeed: 開戶資料 (依 ID 排序)
//	error: 查詢錯誤，或有帳戶餘額為負
func (s *AccountSource) LoadAllAccounts(ctx context.Context) ([]domain.AccountSeed, error) {
	var rows []sqlAccount
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}

	seeds := make([]domain.AccountSeed, 0, len(rows))
	for _, row := range rows {
		if row.Balance.IsNegative() {
			return nil, fmt.Errorf("account %s: %w", row.ID, domain.ErrInvalidAmount)
		}
		seeds = append(seeds, domain.AccountSeed{
			ID:      row.ID,
			Secret:  row.Secret,
			Balance: row.Balance,
		})
	}
	return seeds, nil
}

// Migrate 建立 accounts 表 (開發環境用)
func (s *AccountSource) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&sqlAccount{})
}

var _ usecase.AccountSource = (*AccountSource)(nil)

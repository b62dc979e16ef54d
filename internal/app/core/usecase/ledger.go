package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-mini-ledger/internal/app/core/domain"
)

// Ledger 是帳務系統的介面，每個操作以帳戶 ID 為鍵
type Ledger interface {
	// CreateAccount 開戶，同一 ID 只能建立一次
	CreateAccount(ctx context.Context, accountID string, initialBalance decimal.Decimal) error
	// GetAccountBalance 取得帳戶餘額
	GetAccountBalance(ctx context.Context, accountID string) (decimal.Decimal, error)
	// Deposit 存款，回傳新餘額
	Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error)
	// Withdraw 提款，回傳新餘額
	Withdraw(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error)
	// GetTransactions 取得交易紀錄快照 (新到舊)
	GetTransactions(ctx context.Context, accountID string) ([]domain.Transaction, error)
	// PostTransaction 直接看 tran.Type 決定存提款，tran.TransactionID 作為冪等鍵。
	// onCommit 可為 nil，只在新提交時於帳戶鎖內呼叫 (重送與失敗不呼叫)
	PostTransaction(ctx context.Context, tran domain.Transaction, onCommit CommitHook) (domain.Receipt, error)
}

// CommitHook 在帳戶鎖內收到剛提交的交易，同一帳戶依 Sequence 順序呼叫。
// 不得回頭呼叫同一帳戶的 Ledger 方法
type CommitHook func(committed domain.Transaction)

// AccountSource 開戶資料來源 (設定檔、MySQL、Postgres)
type AccountSource interface {
	LoadAllAccounts(ctx context.Context) ([]domain.AccountSeed, error)
}

// EventPublisher 發布交易提交事件
type EventPublisher interface {
	Publish(ctx context.Context, event domain.TransactionCommitted) error
}

// Journal 稽核日誌，只追加不回放
type Journal interface {
	Write(v any) error
}

package usecase

import (
	"context"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-mini-ledger/internal/app/core/domain"
)

// CoreUseCase 是核心業務邏輯層
type CoreUseCase struct {
	ledger    Ledger
	publisher EventPublisher
	journal   Journal
	logger    glog.Logger
}

// Option 定義了 CoreUseCase 的配置選項函數
type Option func(*CoreUseCase)

// WithPublisher 設定交易事件發布者
func WithPublisher(publisher EventPublisher) Option {
	return func(c *CoreUseCase) {
		c.publisher = publisher
	}
}

// WithJournal 設定稽核日誌
func WithJournal(journal Journal) Option {
	return func(c *CoreUseCase) {
		c.journal = journal
	}
}

// WithLogger 設定 Logger
func WithLogger(logger glog.Logger) Option {
	return func(c *CoreUseCase) {
		c.logger = logger
	}
}

func NewCoreUseCase(ledger Ledger, opts ...Option) *CoreUseCase {
	c := &CoreUseCase{
		ledger: ledger,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}
	c.logger = glog.Ensure(c.logger)
	return c
}

// Provision 依序建立開戶資料中的帳戶
//
// 參數:
//
//	ctx: 上下文
//	seeds: 開戶資料
//
// 回傳:
//
//	error: 第一個失敗的開戶錯誤
func (c *CoreUseCase) Provision(ctx context.Context, seeds []domain.AccountSeed) error {
	for _, seed := range seeds {
		if err := c.OpenAccount(ctx, seed.ID, seed.Balance); err != nil {
			return err
		}
	}
	return nil
}

// OpenAccount 開戶
func (c *CoreUseCase) OpenAccount(ctx context.Context, accountID string, initialBalance decimal.Decimal) error {
	if err := c.ledger.CreateAccount(ctx, accountID, initialBalance); err != nil {
		c.logger.Warn("open account failed", "account_id", accountID, "error", err)
		return err
	}
	c.logger.Info("account opened", "account_id", accountID, "balance", initialBalance.String())
	return nil
}

// GetAccountBalance 取得帳戶餘額
func (c *CoreUseCase) GetAccountBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	return c.ledger.GetAccountBalance(ctx, accountID)
}

// GetTransactions 取得交易紀錄 (新到舊)
func (c *CoreUseCase) GetTransactions(ctx context.Context, accountID string) ([]domain.Transaction, error) {
	return c.ledger.GetTransactions(ctx, accountID)
}

// Deposit 存款。refID 為 uuid.Nil 時自動產生
func (c *CoreUseCase) Deposit(ctx context.Context, refID uuid.UUID, accountID string, amount decimal.Decimal) (domain.Receipt, error) {
	return c.PostTransaction(ctx, domain.Transaction{
		TransactionID: refID,
		AccountID:     accountID,
		Amount:        amount,
		Type:          domain.TransactionTypeDeposit,
	})
}

// Withdraw 提款。refID 為 uuid.Nil 時自動產生
func (c *CoreUseCase) Withdraw(ctx context.Context, refID uuid.UUID, accountID string, amount decimal.Decimal) (domain.Receipt, error) {
	return c.PostTransaction(ctx, domain.Transaction{
		TransactionID: refID,
		AccountID:     accountID,
		Amount:        amount,
		Type:          domain.TransactionTypeWithdraw,
	})
}

// PostTransaction 處理交易
//
// 稽核日誌與事件在帳戶鎖內寫出，同一帳戶的紀錄順序與 Sequence 一致；
// 這兩步失敗只記 log，帳本狀態不回滾。重送的交易 (Replayed) 不會重複寫入。
func (c *CoreUseCase) PostTransaction(ctx context.Context, tran domain.Transaction) (domain.Receipt, error) {
	if tran.TransactionID == uuid.Nil {
		tran.TransactionID = uuid.New()
	}
	logger := c.logger.WithContext(ctx)

	receipt, err := c.ledger.PostTransaction(ctx, tran, c.commitHook(ctx))
	if err != nil {
		logger.Warn("transaction rejected",
			"transaction_id", tran.TransactionID.String(),
			"account_id", tran.AccountID,
			"type", tran.Type.String(),
			"amount", tran.Amount.String(),
			"error", err,
		)
		return receipt, err
	}
	if receipt.Replayed {
		logger.Info("transaction replayed", "transaction_id", tran.TransactionID.String(), "account_id", tran.AccountID)
		return receipt, nil
	}

	committed := receipt.Transaction
	logger.Info("transaction committed",
		"transaction_id", committed.TransactionID.String(),
		"account_id", committed.AccountID,
		"sequence", committed.Sequence,
		"type", committed.Type.String(),
		"amount", committed.Amount.String(),
		"balance", receipt.Balance.String(),
	)
	return receipt, nil
}

// commitHook 沒有 journal 與 publisher 時回傳 nil。
// 請求被取消也要送出已提交的交易，所以用 WithoutCancel
func (c *CoreUseCase) commitHook(ctx context.Context) CommitHook {
	if c.journal == nil && c.publisher == nil {
		return nil
	}
	sinkCtx := context.WithoutCancel(ctx)
	logger := c.logger.WithContext(ctx)
	return func(committed domain.Transaction) {
		if c.journal != nil {
			if err := c.journal.Write(committed); err != nil {
				logger.Error("journal write failed", "transaction_id", committed.TransactionID.String(), "error", err)
			}
		}
		if c.publisher != nil {
			if err := c.publisher.Publish(sinkCtx, domain.NewTransactionCommitted(&committed)); err != nil {
				logger.Error("publish event failed", "transaction_id", committed.TransactionID.String(), "error", err)
			}
		}
	}
}

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// 金額使用 decimal，並定義精度：小數點後 4 位
const (
	CurrencyScale = 4
)

// TransactionType 交易類型
type TransactionType uint8

const (
	// 存款
	TransactionTypeDeposit TransactionType = 1
	// 提款
	TransactionTypeWithdraw TransactionType = 2
)

// String 回傳對外顯示用的類型名稱
func (t TransactionType) String() string {
	switch t {
	case TransactionTypeDeposit:
		return "DEPOSIT"
	case TransactionTypeWithdraw:
		return "WITHDRAW"
	default:
		return "UNKNOWN"
	}
}

// Valid 是否為已知的交易類型
func (t TransactionType) Valid() bool {
	return t == TransactionTypeDeposit || t == TransactionTypeWithdraw
}

// Transaction 一筆已提交(或待提交)的交易，提交後不可再修改
type Transaction struct {
	// Sequence: 帳戶內的提交順序 (由帳本分配，1, 2, 3...)
	Sequence uint64 `json:"sequence"`
	// AccountID: 帳戶 ID
	AccountID string `json:"account_id"`
	// Amount: 金額 (恆為正數)
	Amount decimal.Decimal `json:"amount"`
	// BalanceAfter: 交易提交後的餘額
	BalanceAfter decimal.Decimal `json:"balance_after"`
	// CreatedAt: 提交時間，同一帳戶內單調不遞減
	CreatedAt time.Time `json:"created_at"`
	// TransactionID: 外部追蹤號 (UUID)，同時作為冪等鍵
	TransactionID uuid.UUID       `json:"transaction_id"`
	Type          TransactionType `json:"type"`
}

// SameIntent 判斷兩筆交易是否為同一個請求 (重送判斷用)
func (t *Transaction) SameIntent(other *Transaction) bool {
	return t.AccountID == other.AccountID &&
		t.Type == other.Type &&
		t.Amount.Equal(other.Amount)
}

// Receipt 帳本處理交易後的回執
type Receipt struct {
	Transaction Transaction
	// Balance: 回傳時的帳戶餘額
	Balance decimal.Decimal
	// Replayed: 交易先前已提交過，本次未變更任何狀態
	Replayed bool
}

// ValidateAmount 檢查交易金額：必須為正數，且小數位數不可超過 CurrencyScale
func ValidateAmount(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if !amount.Equal(amount.Truncate(CurrencyScale)) {
		return ErrInvalidAmount
	}
	return nil
}

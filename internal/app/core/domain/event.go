package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionCommitted 交易提交後對外發布的事件
type TransactionCommitted struct {
	TransactionID string          `json:"transaction_id"`
	AccountID     string          `json:"account_id"`
	Sequence      uint64          `json:"sequence"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// NewTransactionCommitted 由已提交的交易建立事件
func NewTransactionCommitted(tran *Transaction) TransactionCommitted {
	return TransactionCommitted{
		TransactionID: tran.TransactionID.String(),
		AccountID:     tran.AccountID,
		Sequence:      tran.Sequence,
		Type:          tran.Type.String(),
		Amount:        tran.Amount,
		BalanceAfter:  tran.BalanceAfter,
		OccurredAt:    tran.CreatedAt,
	}
}

package main

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-mini-ledger/internal/app/core/domain"
)

// AccountSummary 單一帳戶在稽核日誌中的統計
type AccountSummary struct {
	AccountID    string
	Records      int
	Deposited    decimal.Decimal
	Withdrawn    decimal.Decimal
	LastSequence uint64
	LastBalance  decimal.Decimal
	// Breaks: 序號不連續或 BalanceAfter 與前一筆對不上的筆數
	Breaks int
}

// Summarizer 逐筆累計稽核日誌
type Summarizer struct {
	accounts map[string]*AccountSummary
}

func NewSummarizer() *Summarizer {
	return &Summarizer{accounts: make(map[string]*AccountSummary)}
}

// Add 加入一筆原始 JSON 紀錄
func (s *Summarizer) Add(raw json.RawMessage) error {
	var tran domain.Transaction
	if err := json.Unmarshal(raw, &tran); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	if !tran.Type.Valid() {
		return fmt.Errorf("record %s: %w", tran.TransactionID, domain.ErrInvalidTransactionType)
	}

	sum, ok := s.accounts[tran.AccountID]
	if !ok {
		sum = &AccountSummary{AccountID: tran.AccountID}
		s.accounts[tran.AccountID] = sum
	}

	expected := sum.LastBalance
	switch tran.Type {
	case domain.TransactionTypeDeposit:
		sum.Deposited = sum.Deposited.Add(tran.Amount)
		expected = expected.Add(tran.Amount)
	case domain.TransactionTypeWithdraw:
		sum.Withdrawn = sum.Withdrawn.Add(tran.Amount)
		expected = expected.Sub(tran.Amount)
	}
	// 第一筆之前的餘額 (開戶餘額) 不在日誌中，只能從第二筆開始檢查
	if sum.Records > 0 && (tran.Sequence != sum.LastSequence+1 || !expected.Equal(tran.BalanceAfter)) {
		sum.Breaks++
	}

	sum.Records++
	sum.LastSequence = tran.Sequence
	sum.LastBalance = tran.BalanceAfter
	return nil
}

// Accounts 依帳戶 ID 排序回傳統計
func (s *Summarizer) Accounts() []AccountSummary {
	out := make([]AccountSummary, 0, len(s.accounts))
	for _, sum := range s.accounts {
		out = append(out, *sum)
	}
	slices.SortFunc(out, func(a, b AccountSummary) int {
		if a.AccountID < b.AccountID {
			return -1
		}
		if a.AccountID > b.AccountID {
			return 1
		}
		return 0
	})
	return out
}

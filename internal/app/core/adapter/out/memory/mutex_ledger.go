package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-mini-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-mini-ledger/internal/app/core/usecase"
)

// accountState 單一帳戶的狀態與它自己的鎖
//
// 結構:
//
//	mu: 保護 account / history / processed，整個「檢查餘額 → 調整 → 記錄」在同一個臨界區
//	history: 交易紀錄，舊到新 (append-only)，讀取時反轉
//	processed: 已提交的 TransactionID 對應 history 的 index
type accountState struct {
	mu        sync.RWMutex
	account   *domain.Account
	history   []domain.Transaction
	processed map[uuid.UUID]int
}

// MutexLedger 是一個以「每個帳戶一把鎖」實現的記憶體帳本
//
// 結構:
//
//	accounts: 帳戶資料 Map
//	mu: 只保護 accounts 這張表 (查找用 RLock，開戶用 Lock)，不參與交易本身
//	now: 時鐘，可在測試中替換
type MutexLedger struct {
	mu       sync.RWMutex
	accounts map[string]*accountState
	now      func() time.Time
}

// Option 定義了 MutexLedger 的配置選項函數
type Option func(*MutexLedger)

// WithClock 設定交易時間來源
func WithClock(now func() time.Time) Option {
	return func(m *MutexLedger) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMutexLedger 建立一個新的 MutexLedger 實例
func NewMutexLedger(opts ...Option) *MutexLedger {
	ledger := &MutexLedger{
		accounts: make(map[string]*accountState),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(ledger)
	}
	return ledger
}

// CreateAccount 開戶
//
// 參數:
//
//	ctx: 上下文
//	accountID: 帳戶 ID
//	initialBalance: 初始餘額 (不可為負)
//
// 回傳:
//
//	error: ErrInvalidAccountID / ErrInvalidAmount / ErrAccountAlreadyExists
func (m *MutexLedger) CreateAccount(ctx context.Context, accountID string, initialBalance decimal.Decimal) error {
	if accountID == "" {
		return domain.ErrInvalidAccountID
	}
	if initialBalance.IsNegative() {
		return domain.ErrInvalidAmount
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[accountID]; ok {
		return domain.ErrAccountAlreadyExists
	}
	m.accounts[accountID] = &accountState{
		account:   domain.NewAccount(accountID, initialBalance),
		history:   make([]domain.Transaction, 0),
		processed: make(map[uuid.UUID]int),
	}
	return nil
}

// AccountIDs 回傳所有帳戶 ID (已排序)
func (m *MutexLedger) AccountIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.accounts))
	for id := range m.accounts {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// lookup 只在查表時持有表鎖，取得帳戶後立即釋放
func (m *MutexLedger) lookup(accountID string) (*accountState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.accounts[accountID]
	return state, ok
}

// GetAccountBalance 取得指定帳戶的當前餘額
//
// 參數:
//
//	ctx: 上下文
//	accountID: 帳戶 ID
//
// 回傳:
//
//	decimal.Decimal: 帳戶餘額
//	error: 查詢錯誤 (如帳戶不存在)
func (m *MutexLedger) GetAccountBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	state, ok := m.lookup(accountID)
	if !ok {
		return decimal.Zero, domain.ErrAccountNotFound
	}
	state.mu.RLock()
	defer state.mu.RUnlock()
	return state.account.Balance, nil
}

// GetTransactions 取得交易紀錄快照，新到舊。帳戶不存在時回傳空 slice
func (m *MutexLedger) GetTransactions(ctx context.Context, accountID string) ([]domain.Transaction, error) {
	state, ok := m.lookup(accountID)
	if !ok {
		return []domain.Transaction{}, nil
	}
	state.mu.RLock()
	defer state.mu.RUnlock()

	out := make([]domain.Transaction, len(state.history))
	for i, tran := range state.history {
		out[len(out)-1-i] = tran
	}
	return out, nil
}

// Deposit 存款，回傳新餘額
func (m *MutexLedger) Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	receipt, err := m.PostTransaction(ctx, domain.Transaction{
		TransactionID: uuid.New(),
		AccountID:     accountID,
		Amount:        amount,
		Type:          domain.TransactionTypeDeposit,
	}, nil)
	if err != nil {
		return decimal.Zero, err
	}
	return receipt.Balance, nil
}

// Withdraw 提款，回傳新餘額
func (m *MutexLedger) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	receipt, err := m.PostTransaction(ctx, domain.Transaction{
		TransactionID: uuid.New(),
		AccountID:     accountID,
		Amount:        amount,
		Type:          domain.TransactionTypeWithdraw,
	}, nil)
	if err != nil {
		return decimal.Zero, err
	}
	return receipt.Balance, nil
}

// PostTransaction 處理交易請求 (每帳戶一把 Mutex)
//
// 參數:
//
//	ctx: 上下文
//	tran: 交易請求 (值傳遞，不修改呼叫端)，TransactionID 為冪等鍵
//	onCommit: 新提交時在帳戶鎖內呼叫，可為 nil
//
// 回傳:
//
//	domain.Receipt: 交易回執
//	error: 處理錯誤
func (m *MutexLedger) PostTransaction(ctx context.Context, tran domain.Transaction, onCommit usecase.CommitHook) (domain.Receipt, error) {
	if !tran.Type.Valid() {
		return domain.Receipt{}, domain.ErrInvalidTransactionType
	}
	if err := domain.ValidateAmount(tran.Amount); err != nil {
		return domain.Receipt{}, err
	}
	state, ok := m.lookup(tran.AccountID)
	if !ok {
		return domain.Receipt{}, domain.ErrAccountNotFound
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	return m.postTransactionInternal(state, tran, onCommit)
}

// postTransactionInternal 執行交易核心邏輯，呼叫端必須持有 state.mu
func (m *MutexLedger) postTransactionInternal(state *accountState, tran domain.Transaction, onCommit usecase.CommitHook) (domain.Receipt, error) {
	if tran.TransactionID != uuid.Nil {
		if idx, ok := state.processed[tran.TransactionID]; ok {
			previous := state.history[idx]
			if !previous.SameIntent(&tran) {
				return domain.Receipt{}, domain.ErrDuplicateTransaction
			}
			return domain.Receipt{
				Transaction: previous,
				Balance:     state.account.Balance,
				Replayed:    true,
			}, nil
		}
	}

	var err error
	switch tran.Type {
	case domain.TransactionTypeDeposit:
		err = state.account.Deposit(tran.Amount)
	case domain.TransactionTypeWithdraw:
		err = state.account.Withdraw(tran.Amount)
	}
	if err != nil {
		return domain.Receipt{}, err
	}

	committed := domain.Transaction{
		Sequence:      uint64(len(state.history) + 1),
		AccountID:     tran.AccountID,
		Amount:        tran.Amount,
		BalanceAfter:  state.account.Balance,
		CreatedAt:     m.commitTime(state),
		TransactionID: tran.TransactionID,
		Type:          tran.Type,
	}
	if committed.TransactionID == uuid.Nil {
		committed.TransactionID = uuid.New()
	}
	state.history = append(state.history, committed)
	state.processed[committed.TransactionID] = len(state.history) - 1

	// 仍持有鎖：下游 (稽核日誌、事件) 看到的順序與 Sequence 一致
	if onCommit != nil {
		onCommit(committed)
	}

	return domain.Receipt{
		Transaction: committed,
		Balance:     state.account.Balance,
	}, nil
}

// commitTime 時間不得早於上一筆交易 (時鐘回撥時沿用上一筆的時間)
func (m *MutexLedger) commitTime(state *accountState) time.Time {
	now := m.now()
	if n := len(state.history); n > 0 {
		if last := state.history[n-1].CreatedAt; now.Before(last) {
			return last
		}
	}
	return now
}

var _ usecase.Ledger = (*MutexLedger)(nil)

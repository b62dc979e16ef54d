package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-mini-ledger/internal/app/core/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newLedgerWith(t *testing.T, id string, balance string, opts ...Option) *MutexLedger {
	t.Helper()
	ledger := NewMutexLedger(opts...)
	if err := ledger.CreateAccount(context.Background(), id, dec(balance)); err != nil {
		t.Fatalf("create account %s: %v", id, err)
	}
	return ledger
}

func balanceOf(t *testing.T, ledger *MutexLedger, id string) decimal.Decimal {
	t.Helper()
	balance, err := ledger.GetAccountBalance(context.Background(), id)
	if err != nil {
		t.Fatalf("GetAccountBalance(%s): %v", id, err)
	}
	return balance
}

func TestScenarioDepositWithdrawHistory(t *testing.T) {
	ctx := context.Background()
	ledger := newLedgerWith(t, "acc1", "1000.0")

	balance, err := ledger.Deposit(ctx, "acc1", dec("500.0"))
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if !balance.Equal(dec("1500")) {
		t.Fatalf("balance after deposit = %s, want 1500", balance)
	}

	if _, err := ledger.Withdraw(ctx, "acc1", dec("2000.0")); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if got := balanceOf(t, ledger, "acc1"); !got.Equal(dec("1500")) {
		t.Fatalf("balance after failed withdraw = %s, want 1500", got)
	}

	balance, err = ledger.Withdraw(ctx, "acc1", dec("1500.0"))
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if !balance.IsZero() {
		t.Fatalf("balance after withdraw = %s, want 0", balance)
	}

	history, err := ledger.GetTransactions(ctx, "acc1")
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history len = %d, want 2", len(history))
	}
	if history[0].Type != domain.TransactionTypeWithdraw || !history[0].Amount.Equal(dec("1500")) {
		t.Fatalf("history[0] = %+v, want withdrawal 1500", history[0])
	}
	if history[1].Type != domain.TransactionTypeDeposit || !history[1].Amount.Equal(dec("500")) {
		t.Fatalf("history[1] = %+v, want deposit 500", history[1])
	}
	if history[0].Sequence != 2 || history[1].Sequence != 1 {
		t.Fatalf("unexpected sequences %d, %d", history[0].Sequence, history[1].Sequence)
	}
	if !history[1].BalanceAfter.Equal(dec("1500")) || !history[0].BalanceAfter.IsZero() {
		t.Fatalf("unexpected balance_after values: %s, %s", history[1].BalanceAfter, history[0].BalanceAfter)
	}
}

func TestDepositUnknownAccount(t *testing.T) {
	ctx := context.Background()
	ledger := newLedgerWith(t, "acc1", "10")

	if _, err := ledger.Deposit(ctx, "unknown", dec("10.0")); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	if ids := ledger.AccountIDs(); len(ids) != 1 || ids[0] != "acc1" {
		t.Fatalf("store state changed: %v", ids)
	}
	if _, err := ledger.GetAccountBalance(ctx, "unknown"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound for balance, got %v", err)
	}
	if _, err := ledger.Withdraw(ctx, "unknown", dec("1")); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound for withdraw, got %v", err)
	}
}

func TestInvalidAmountsRecordNothing(t *testing.T) {
	ctx := context.Background()
	ledger := newLedgerWith(t, "acc1", "100")

	for _, amount := range []string{"-5.0", "0", "0.00001"} {
		if _, err := ledger.Deposit(ctx, "acc1", dec(amount)); !errors.Is(err, domain.ErrInvalidAmount) {
			t.Fatalf("deposit %s: expected ErrInvalidAmount, got %v", amount, err)
		}
		if _, err := ledger.Withdraw(ctx, "acc1", dec(amount)); !errors.Is(err, domain.ErrInvalidAmount) {
			t.Fatalf("withdraw %s: expected ErrInvalidAmount, got %v", amount, err)
		}
	}

	history, _ := ledger.GetTransactions(ctx, "acc1")
	if len(history) != 0 {
		t.Fatalf("expected no transactions, got %d", len(history))
	}
	if got := balanceOf(t, ledger, "acc1"); !got.Equal(dec("100")) {
		t.Fatalf("balance = %s, want 100", got)
	}
}

func TestGetTransactionsUnknownAccountIsEmpty(t *testing.T) {
	ledger := NewMutexLedger()
	history, err := ledger.GetTransactions(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if history == nil || len(history) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", history)
	}
}

func TestTransactionsSnapshotIsImmutable(t *testing.T) {
	ctx := context.Background()
	ledger := newLedgerWith(t, "acc1", "0")

	if _, err := ledger.Deposit(ctx, "acc1", dec("1")); err != nil {
		t.Fatal(err)
	}
	snapshot, _ := ledger.GetTransactions(ctx, "acc1")

	if _, err := ledger.Deposit(ctx, "acc1", dec("2")); err != nil {
		t.Fatal(err)
	}
	snapshot[0].Amount = dec("999")

	if len(snapshot) != 1 {
		t.Fatalf("snapshot grew to %d entries", len(snapshot))
	}
	latest, _ := ledger.GetTransactions(ctx, "acc1")
	if len(latest) != 2 || !latest[1].Amount.Equal(dec("1")) || !latest[0].Amount.Equal(dec("2")) {
		t.Fatalf("ledger history affected by snapshot mutation: %+v", latest)
	}
}

func TestCreateAccountValidation(t *testing.T) {
	ctx := context.Background()
	ledger := NewMutexLedger()

	if err := ledger.CreateAccount(ctx, "", decimal.Zero); !errors.Is(err, domain.ErrInvalidAccountID) {
		t.Fatalf("expected ErrInvalidAccountID, got %v", err)
	}
	if err := ledger.CreateAccount(ctx, "a", dec("-1")); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if err := ledger.CreateAccount(ctx, "a", decimal.Zero); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := ledger.CreateAccount(ctx, "a", dec("5")); !errors.Is(err, domain.ErrAccountAlreadyExists) {
		t.Fatalf("expected ErrAccountAlreadyExists, got %v", err)
	}
	if got := balanceOf(t, ledger, "a"); !got.IsZero() {
		t.Fatalf("duplicate create overwrote balance: %s", got)
	}
}

func TestConcurrentCreateSameID(t *testing.T) {
	ledger := NewMutexLedger()
	const workers = 50

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := ledger.CreateAccount(context.Background(), "shared", dec("1"))
			if err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			} else if !errors.Is(err, domain.ErrAccountAlreadyExists) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if created != 1 {
		t.Fatalf("created %d times, want exactly once", created)
	}
}

func TestConcurrentDepositsNoLostUpdates(t *testing.T) {
	ctx := context.Background()
	ledger := newLedgerWith(t, "acc1", "1000")

	const n = 200
	amount := dec("2.5")
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := ledger.Deposit(ctx, "acc1", amount); err != nil {
				t.Errorf("deposit: %v", err)
			}
		}()
	}
	wg.Wait()

	want := dec("1000").Add(amount.Mul(decimal.NewFromInt(n)))
	if got := balanceOf(t, ledger, "acc1"); !got.Equal(want) {
		t.Fatalf("balance = %s, want %s", got, want)
	}
	history, _ := ledger.GetTransactions(ctx, "acc1")
	if len(history) != n {
		t.Fatalf("history len = %d, want %d", len(history), n)
	}
}

func TestConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	ledger := newLedgerWith(t, "acc1", "100")

	const n = 300
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	wg.Add(2 * n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := ledger.Withdraw(ctx, "acc1", dec("1"))
			switch {
			case err == nil:
				mu.Lock()
				succeeded++
				mu.Unlock()
			case !errors.Is(err, domain.ErrInsufficientFunds):
				t.Errorf("withdraw: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := ledger.GetAccountBalance(ctx, "acc1"); err != nil {
				t.Errorf("balance: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 100 {
		t.Fatalf("succeeded withdrawals = %d, want 100", succeeded)
	}
	if got := balanceOf(t, ledger, "acc1"); !got.IsZero() {
		t.Fatalf("balance = %s, want 0", got)
	}
}

func TestBalanceMatchesHistoryUnderMixedLoad(t *testing.T) {
	ctx := context.Background()
	ledger := newLedgerWith(t, "acc1", "50")

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = ledger.Deposit(ctx, "acc1", dec("3"))
		}()
		go func() {
			defer wg.Done()
			_, _ = ledger.Withdraw(ctx, "acc1", dec("5"))
		}()
	}
	wg.Wait()

	history, _ := ledger.GetTransactions(ctx, "acc1")
	expected := dec("50")
	for i := len(history) - 1; i >= 0; i-- {
		tran := history[i]
		if tran.Type == domain.TransactionTypeDeposit {
			expected = expected.Add(tran.Amount)
		} else {
			expected = expected.Sub(tran.Amount)
		}
		if expected.IsNegative() {
			t.Fatalf("replayed balance went negative at sequence %d", tran.Sequence)
		}
		if !tran.BalanceAfter.Equal(expected) {
			t.Fatalf("sequence %d balance_after = %s, want %s", tran.Sequence, tran.BalanceAfter, expected)
		}
	}
	if got := balanceOf(t, ledger, "acc1"); !got.Equal(expected) {
		t.Fatalf("balance = %s, history implies %s", got, expected)
	}
	for i := 1; i < len(history); i++ {
		if history[i-1].Sequence <= history[i].Sequence {
			t.Fatalf("history not newest first at %d", i)
		}
	}
}

func TestAccountsDoNotContend(t *testing.T) {
	ctx := context.Background()
	ledger := NewMutexLedger()
	for _, id := range []string{"a", "b"} {
		if err := ledger.CreateAccount(ctx, id, dec("10")); err != nil {
			t.Fatal(err)
		}
	}

	held, _ := ledger.lookup("a")
	held.mu.Lock()
	defer held.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := ledger.Deposit(ctx, "b", dec("1")); err != nil {
			t.Errorf("deposit b: %v", err)
		}
		if _, err := ledger.GetTransactions(ctx, "b"); err != nil {
			t.Errorf("transactions b: %v", err)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("operation on account b blocked by a lock on account a")
	}
}

func TestPostTransactionIdempotentReplay(t *testing.T) {
	ctx := context.Background()
	ledger := newLedgerWith(t, "acc1", "10")
	ref := uuid.New()

	first, err := ledger.PostTransaction(ctx, domain.Transaction{
		TransactionID: ref,
		AccountID:     "acc1",
		Amount:        dec("4"),
		Type:          domain.TransactionTypeWithdraw,
	}, nil)
	if err != nil {
		t.Fatalf("first post: %v", err)
	}
	if first.Replayed {
		t.Fatalf("first post should not be a replay")
	}

	second, err := ledger.PostTransaction(ctx, domain.Transaction{
		TransactionID: ref,
		AccountID:     "acc1",
		Amount:        dec("4"),
		Type:          domain.TransactionTypeWithdraw,
	}, nil)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !second.Replayed || second.Transaction.Sequence != first.Transaction.Sequence {
		t.Fatalf("expected replay of sequence %d, got %+v", first.Transaction.Sequence, second)
	}
	if got := balanceOf(t, ledger, "acc1"); !got.Equal(dec("6")) {
		t.Fatalf("balance = %s, want 6", got)
	}

	_, err = ledger.PostTransaction(ctx, domain.Transaction{
		TransactionID: ref,
		AccountID:     "acc1",
		Amount:        dec("5"),
		Type:          domain.TransactionTypeWithdraw,
	}, nil)
	if !errors.Is(err, domain.ErrDuplicateTransaction) {
		t.Fatalf("expected ErrDuplicateTransaction, got %v", err)
	}
}

func TestPostTransactionRejectsUnknownType(t *testing.T) {
	ledger := newLedgerWith(t, "acc1", "10")
	_, err := ledger.PostTransaction(context.Background(), domain.Transaction{
		AccountID: "acc1",
		Amount:    dec("1"),
		Type:      domain.TransactionType(9),
	}, nil)
	if !errors.Is(err, domain.ErrInvalidTransactionType) {
		t.Fatalf("expected ErrInvalidTransactionType, got %v", err)
	}
}

func TestTimestampsNeverGoBackwards(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ticks := []time.Time{base, base.Add(-time.Minute), base.Add(time.Second)}
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := ticks[0]
		ticks = ticks[1:]
		return now
	}
	ledger := newLedgerWith(t, "acc1", "0", WithClock(clock))

	for i := 0; i < 3; i++ {
		if _, err := ledger.Deposit(ctx, "acc1", dec("1")); err != nil {
			t.Fatal(err)
		}
	}
	history, _ := ledger.GetTransactions(ctx, "acc1")
	if !history[2].CreatedAt.Equal(base) || !history[1].CreatedAt.Equal(base) {
		t.Fatalf("clock skew not clamped: %v, %v", history[2].CreatedAt, history[1].CreatedAt)
	}
	if !history[0].CreatedAt.Equal(base.Add(time.Second)) {
		t.Fatalf("latest timestamp = %v", history[0].CreatedAt)
	}
}

func TestCommitHookRunsInSequenceOrder(t *testing.T) {
	ctx := context.Background()
	ledger := newLedgerWith(t, "acc1", "0")

	var (
		mu   sync.Mutex
		seen []uint64
	)
	hook := func(committed domain.Transaction) {
		// mu 只保護 slice，順序由帳戶鎖決定
		mu.Lock()
		seen = append(seen, committed.Sequence)
		mu.Unlock()
	}

	const n = 200
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ledger.PostTransaction(ctx, domain.Transaction{
				AccountID: "acc1",
				Amount:    dec("1"),
				Type:      domain.TransactionTypeDeposit,
			}, hook); err != nil {
				t.Errorf("post: %v", err)
			}
		}()
	}
	wg.Wait()

	if len(seen) != n {
		t.Fatalf("hook called %d times, want %d", len(seen), n)
	}
	for i, seq := range seen {
		if seq != uint64(i+1) {
			t.Fatalf("hook call %d saw sequence %d, want %d", i, seq, i+1)
		}
	}
}

func TestCommitHookSkipsReplayAndFailure(t *testing.T) {
	ctx := context.Background()
	ledger := newLedgerWith(t, "acc1", "5")
	calls := 0
	hook := func(domain.Transaction) { calls++ }

	tran := domain.Transaction{
		TransactionID: uuid.New(),
		AccountID:     "acc1",
		Amount:        dec("2"),
		Type:          domain.TransactionTypeWithdraw,
	}
	if _, err := ledger.PostTransaction(ctx, tran, hook); err != nil {
		t.Fatalf("post: %v", err)
	}
	if _, err := ledger.PostTransaction(ctx, tran, hook); err != nil {
		t.Fatalf("replay: %v", err)
	}
	_, err := ledger.PostTransaction(ctx, domain.Transaction{
		AccountID: "acc1",
		Amount:    dec("100"),
		Type:      domain.TransactionTypeWithdraw,
	}, hook)
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("hook called %d times, want 1", calls)
	}
}

func TestPostTransactionLeavesRequestUntouched(t *testing.T) {
	ledger := newLedgerWith(t, "acc1", "0")
	req := domain.Transaction{
		AccountID: "acc1",
		Amount:    dec("3"),
		Type:      domain.TransactionTypeDeposit,
	}
	receipt, err := ledger.PostTransaction(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if receipt.Transaction.TransactionID == uuid.Nil {
		t.Fatalf("expected generated transaction id")
	}
	if req.TransactionID != uuid.Nil || req.Sequence != 0 {
		t.Fatalf("request mutated: %+v", req)
	}
}

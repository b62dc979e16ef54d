package domain

import "github.com/shopspring/decimal"

// Account 帳戶狀態。只在帳本的帳戶鎖內修改
type Account struct {
	ID      string
	Balance decimal.Decimal
}

func NewAccount(id string, balance decimal.Decimal) *Account {
	return &Account{
		ID:      id,
		Balance: balance,
	}
}

// Deposit 存款
func (a *Account) Deposit(amount decimal.Decimal) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}

	a.Balance = a.Balance.Add(amount)
	return nil
}

// Withdraw 提款，餘額不可為負
func (a *Account) Withdraw(amount decimal.Decimal) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}

	if a.Balance.LessThan(amount) {
		return ErrInsufficientFunds
	}

	a.Balance = a.Balance.Sub(amount)
	return nil
}

// AccountSeed 開戶資料，來源可以是設定檔或資料庫
type AccountSeed struct {
	ID      string
	Secret  string
	Balance decimal.Decimal
}

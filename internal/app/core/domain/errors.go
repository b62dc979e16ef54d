package domain

import "errors"

var (
	// ErrInvalidAmount 金額為零、負數或格式不合法
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientFunds 餘額不足
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrAccountNotFound 找不到帳戶
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountAlreadyExists 帳戶已存在
	ErrAccountAlreadyExists = errors.New("account already exists")

	// ErrInvalidAccountID 帳戶 ID 為空
	ErrInvalidAccountID = errors.New("invalid account id")

	// ErrInvalidTransactionType 未知的交易類型
	ErrInvalidTransactionType = errors.New("invalid transaction type")

	// ErrDuplicateTransaction 同一個 TransactionID 已用於內容不同的交易
	ErrDuplicateTransaction = errors.New("transaction id already used with different content")

	// ErrUnauthenticated 身分驗證失敗
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInvalidSecret 密碼為空或超過 bcrypt 的 72 bytes 上限
	ErrInvalidSecret = errors.New("invalid secret")
)

package usecase

import (
	"errors"
	"net/http"

	goerrors "github.com/goliatone/go-errors"

	"github.com/JoeShih716/go-mini-ledger/internal/app/core/domain"
)

// 對外穩定的錯誤代碼
const (
	ErrorCodeAccountNotFound      = "LEDGER_ACCOUNT_NOT_FOUND"
	ErrorCodeInvalidAmount        = "LEDGER_INVALID_AMOUNT"
	ErrorCodeInvalidRequest       = "LEDGER_INVALID_REQUEST"
	ErrorCodeInsufficientFunds    = "LEDGER_INSUFFICIENT_FUNDS"
	ErrorCodeAccountExists        = "LEDGER_ACCOUNT_EXISTS"
	ErrorCodeDuplicateTransaction = "LEDGER_DUPLICATE_TRANSACTION"
	ErrorCodeUnauthenticated      = "LEDGER_UNAUTHENTICATED"
	ErrorCodeInvalidSecret        = "LEDGER_INVALID_SECRET"
	ErrorCodeInternal             = "LEDGER_INTERNAL_ERROR"
)

// MapError 將領域錯誤轉為統一的錯誤封包 (category + text code + status code)
func MapError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr
	}

	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return newLedgerError(err, goerrors.CategoryNotFound, http.StatusNotFound, ErrorCodeAccountNotFound)
	case errors.Is(err, domain.ErrInvalidAmount):
		return newLedgerError(err, goerrors.CategoryBadInput, http.StatusBadRequest, ErrorCodeInvalidAmount)
	case errors.Is(err, domain.ErrInvalidAccountID), errors.Is(err, domain.ErrInvalidTransactionType):
		return newLedgerError(err, goerrors.CategoryBadInput, http.StatusBadRequest, ErrorCodeInvalidRequest)
	case errors.Is(err, domain.ErrInvalidSecret):
		return newLedgerError(err, goerrors.CategoryBadInput, http.StatusBadRequest, ErrorCodeInvalidSecret)
	case errors.Is(err, domain.ErrInsufficientFunds):
		return newLedgerError(err, goerrors.CategoryOperation, http.StatusUnprocessableEntity, ErrorCodeInsufficientFunds)
	case errors.Is(err, domain.ErrAccountAlreadyExists):
		return newLedgerError(err, goerrors.CategoryConflict, http.StatusConflict, ErrorCodeAccountExists)
	case errors.Is(err, domain.ErrDuplicateTransaction):
		return newLedgerError(err, goerrors.CategoryConflict, http.StatusConflict, ErrorCodeDuplicateTransaction)
	case errors.Is(err, domain.ErrUnauthenticated):
		return newLedgerError(err, goerrors.CategoryAuth, http.StatusUnauthorized, ErrorCodeUnauthenticated)
	}

	return goerrors.Wrap(err, goerrors.CategoryInternal, "an unexpected error occurred").
		WithCode(http.StatusInternalServerError).
		WithTextCode(ErrorCodeInternal)
}

func newLedgerError(source error, category goerrors.Category, code int, textCode string) *goerrors.Error {
	return goerrors.New(source.Error(), category).
		WithCode(code).
		WithTextCode(textCode)
}

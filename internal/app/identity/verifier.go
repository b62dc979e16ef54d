// Package identity 是帳本核心之外的身分驗證。帳本本身不做驗證，
// 由 adapter 在呼叫任何異動操作前先詢問 Verifier。
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/JoeShih716/go-mini-ledger/internal/app/core/domain"
)

// Credential 已驗證並雜湊過的密碼，尚未綁定帳戶
type Credential struct {
	hash []byte
}

// Verifier 以 bcrypt hash 保存每個帳戶的密碼，只存在記憶體
type Verifier struct {
	mu     sync.RWMutex
	hashes map[string][]byte
	cost   int
}

// NewVerifier 建立 Verifier。cost 小於 bcrypt.MinCost 時使用 bcrypt.DefaultCost
func NewVerifier(cost int) *Verifier {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &Verifier{
		hashes: make(map[string][]byte),
		cost:   cost,
	}
}

// Prepare 檢查並雜湊密碼，不改變任何狀態。
// 開戶時必須先呼叫，密碼不合法就不該建立帳戶
func (v *Verifier) Prepare(secret string) (Credential, error) {
	if strings.TrimSpace(secret) == "" {
		return Credential{}, fmt.Errorf("%w: secret is required", domain.ErrInvalidSecret)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), v.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return Credential{}, fmt.Errorf("%w: %v", domain.ErrInvalidSecret, err)
	}
	if err != nil {
		return Credential{}, fmt.Errorf("hash secret: %w", err)
	}
	return Credential{hash: hash}, nil
}

// Enroll 將 Prepare 產生的密碼綁定到帳戶，重複登記會覆蓋
func (v *Verifier) Enroll(accountID string, cred Credential) error {
	if accountID == "" {
		return domain.ErrInvalidAccountID
	}
	if len(cred.hash) == 0 {
		return domain.ErrInvalidSecret
	}
	v.mu.Lock()
	v.hashes[accountID] = cred.hash
	v.mu.Unlock()
	return nil
}

// Register 等同 Prepare 後 Enroll
func (v *Verifier) Register(accountID, secret string) error {
	if accountID == "" {
		return domain.ErrInvalidAccountID
	}
	cred, err := v.Prepare(secret)
	if err != nil {
		return err
	}
	return v.Enroll(accountID, cred)
}

// Verify 檢查帳戶密碼。帳戶不存在與密碼錯誤都回傳 ErrUnauthenticated
func (v *Verifier) Verify(ctx context.Context, accountID, secret string) error {
	v.mu.RLock()
	hash, ok := v.hashes[accountID]
	v.mu.RUnlock()
	if !ok {
		return domain.ErrUnauthenticated
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(secret)); err != nil {
		return domain.ErrUnauthenticated
	}
	return nil
}

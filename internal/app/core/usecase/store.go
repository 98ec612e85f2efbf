package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
)

// AccountStore 是帳戶資料的儲存介面 (Driven Port)
// 唯一允許持久化狀態變更的元件
type AccountStore interface {
	// CreateAccount 建立新帳戶並分配 ID
	// initialBalance 為負數時回傳 ErrInvalidBalance
	CreateAccount(ctx context.Context, cardholderName string, initialBalance int64) (*domain.Account, error)
	// GetAccount 取得帳戶，不存在時回傳 ErrAccountNotFound
	GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	// WriteBalance 原子性覆寫帳戶餘額並回傳更新後的帳戶
	// 同一帳戶的寫入彼此不可分割
	// newBalance 為負數時回傳 ErrInvalidBalance (Defense in depth，上層不應傳入)
	WriteBalance(ctx context.Context, id uuid.UUID, newBalance int64) (*domain.Account, error)
	// AccountExists 檢查帳戶是否存在，不需取回完整資料
	AccountExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// PairWriter 是可選的能力介面
// 儲存層若能將轉帳的兩筆餘額寫入當成單一原子單位套用 (如 SQL Transaction) 則實作之
// LedgerService 以 type assertion 偵測，沒有實作時退回依鎖定順序的兩次 WriteBalance
type PairWriter interface {
	// WriteBalancePair 原子性覆寫兩個帳戶的餘額，觀察者只會看到兩筆都生效或都未生效
	WriteBalancePair(ctx context.Context, debitID uuid.UUID, debitBalance int64, creditID uuid.UUID, creditBalance int64) error
}

package mysql

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-bank-ledger/pkg/mysql"
)

// sqlAccount 對應資料庫的 accounts 表
// balance 帶 CHECK 約束，即使應用層有 Bug 也寫不進負餘額 (Defense in depth)
type sqlAccount struct {
	ID             []byte `gorm:"primaryKey;type:binary(16)"`
	CardholderName string `gorm:"type:varchar(255);not null"`
	Balance        int64  `gorm:"not null;check:chk_balance_non_negative,balance >= 0"`
	UpdatedAt      int64  `gorm:"autoUpdateTime:milli"` // 自動更新時間
}

func (*sqlAccount) TableName() string {
	return "accounts"
}

// Store 是 MySQL 實作的 AccountStore
type Store struct {
	client *mysql.Client
}

// NewStore 建立 Store 實例並確保 accounts 表存在
//
// 參數:
//
//	client: MySQL 客戶端
//
// 回傳:
//
//	*Store: Store 實例
//	error: Migration 錯誤
func NewStore(client *mysql.Client) (*Store, error) {
	if err := client.DB().AutoMigrate(&sqlAccount{}); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStorageFailed, err)
	}
	return &Store{
		client: client,
	}, nil
}

// CreateAccount 建立新帳戶
func (s *Store) CreateAccount(ctx context.Context, cardholderName string, initialBalance int64) (*domain.Account, error) {
	if initialBalance < 0 {
		return nil, domain.ErrInvalidBalance
	}

	account := domain.NewAccount(cardholderName, initialBalance)
	row := sqlAccount{
		ID:             account.ID[:],
		CardholderName: account.CardholderName,
		Balance:        account.Balance,
	}
	if err := s.client.DB().WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStorageFailed, err)
	}
	return account, nil
}

// GetAccount 取得帳戶
func (s *Store) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	var row sqlAccount
	err := s.client.DB().WithContext(ctx).Where("id = ?", id[:]).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrStorageFailed, err)
	}
	return rowToAccount(&row)
}

// WriteBalance 以單筆條件式 UPDATE 覆寫餘額
// RowsAffected == 0 代表帳戶在讀取與寫入之間消失了 (正常鎖定流程下不會發生，仍需處理)
func (s *Store) WriteBalance(ctx context.Context, id uuid.UUID, newBalance int64) (*domain.Account, error) {
	if newBalance < 0 {
		return nil, domain.ErrInvalidBalance
	}

	result := s.client.DB().WithContext(ctx).
		Model(&sqlAccount{}).
		Where("id = ?", id[:]).
		Update("balance", newBalance)
	if result.Error != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStorageFailed, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrAccountNotFound
	}
	// 姓名不可變，寫入後讀回即是更新後的完整帳戶
	return s.GetAccount(ctx, id)
}

// WriteBalancePair 在同一個資料庫 Transaction 內覆寫兩個帳戶的餘額
// UPDATE 依 UUID byte 序執行，與 LedgerService 的取鎖順序一致
func (s *Store) WriteBalancePair(ctx context.Context, debitID uuid.UUID, debitBalance int64, creditID uuid.UUID, creditBalance int64) error {
	if debitBalance < 0 || creditBalance < 0 {
		return domain.ErrInvalidBalance
	}

	writes := []struct {
		id      uuid.UUID
		balance int64
	}{
		{debitID, debitBalance},
		{creditID, creditBalance},
	}
	if bytes.Compare(creditID[:], debitID[:]) < 0 {
		writes[0], writes[1] = writes[1], writes[0]
	}

	err := s.client.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, w := range writes {
			result := tx.Model(&sqlAccount{}).
				Where("id = ?", w.id[:]).
				Update("balance", w.balance)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return domain.ErrAccountNotFound
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.ErrStorageFailed, err)
	}
	return nil
}

// AccountExists 檢查帳戶是否存在
func (s *Store) AccountExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := s.client.DB().WithContext(ctx).
		Model(&sqlAccount{}).
		Where("id = ?", id[:]).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("%w: %w", domain.ErrStorageFailed, err)
	}
	return count > 0, nil
}

// rowToAccount 將資料列轉回 Domain Account
func rowToAccount(row *sqlAccount) (*domain.Account, error) {
	id, err := uuid.FromBytes(row.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStorageFailed, err)
	}
	return &domain.Account{
		ID:             id,
		CardholderName: row.CardholderName,
		Balance:        row.Balance,
	}, nil
}

var _ usecase.AccountStore = (*Store)(nil)
var _ usecase.PairWriter = (*Store)(nil)

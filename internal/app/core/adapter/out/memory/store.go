package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-bank-ledger/pkg/wal"
)

// journalOp WAL 紀錄的操作類型
type journalOp uint8

const (
	journalOpCreate    journalOp = 1
	journalOpWrite     journalOp = 2
	journalOpWritePair journalOp = 3
)

// journalRecord WAL 中的一筆紀錄
// Create 紀錄帶姓名與初始餘額，Write 紀錄只帶覆寫後的餘額
// WritePair 把轉帳的兩筆餘額放在同一筆紀錄，持久化形式不可分割:
// 任何重放都是兩筆全生效或全不生效，不會出現半套轉帳
type journalRecord struct {
	Op             journalOp
	AccountID      uuid.UUID
	CardholderName string `json:",omitempty"`
	Balance        int64
	// 成對寫入的第二個帳戶 (Op 為 WritePair 時使用)
	PairAccountID uuid.UUID `json:",omitempty"`
	PairBalance   int64     `json:",omitempty"`
}

// Store 是記憶體實作的 AccountStore
//
// 結構:
//
//	accounts: 帳戶資料 Map
//	mu: RWMutex 用於保護帳戶 Map
//	wal: Write-Ahead Log 實例，nil 表示不持久化 (測試用)
//
// 每筆建立與餘額寫入都先落入 WAL 再套用到 Map，
// 重啟時重放 WAL 即可還原狀態
type Store struct {
	accounts map[uuid.UUID]*domain.Account
	mu       sync.RWMutex
	wal      *wal.WAL
}

// NewStore 建立一個新的 Store 實例並從 WAL 恢復狀態
//
// 參數:
//
//	w: Write-Ahead Log 實例，可為 nil
//
// 回傳:
//
//	*Store: Store 實例
//	error: 初始化錯誤 (如 WAL 恢復失敗)
func NewStore(w *wal.WAL) (*Store, error) {
	store := &Store{
		accounts: make(map[uuid.UUID]*domain.Account),
		wal:      w,
	}
	if err := store.recoverFromWAL(); err != nil {
		return nil, err
	}
	return store, nil
}

// recoverFromWAL 重放 WAL 檔案重建帳戶 Map
// 只有 NewStore 呼叫，無需 Lock (單執行緒)
func (s *Store) recoverFromWAL() error {
	if s.wal == nil {
		return nil
	}
	return s.wal.ReadAll(func(jsonRaw []byte) error {
		var rec journalRecord
		if err := json.Unmarshal(jsonRaw, &rec); err != nil {
			return err
		}
		switch rec.Op {
		case journalOpCreate:
			s.accounts[rec.AccountID] = &domain.Account{
				ID:             rec.AccountID,
				CardholderName: rec.CardholderName,
				Balance:        rec.Balance,
			}
		case journalOpWrite:
			if account, ok := s.accounts[rec.AccountID]; ok {
				account.Balance = rec.Balance
			}
		case journalOpWritePair:
			if account, ok := s.accounts[rec.AccountID]; ok {
				account.Balance = rec.Balance
			}
			if account, ok := s.accounts[rec.PairAccountID]; ok {
				account.Balance = rec.PairBalance
			}
		}
		return nil
	})
}

// journal 寫入一筆 WAL 紀錄 (呼叫端需持有寫鎖)
func (s *Store) journal(rec *journalRecord) error {
	if s.wal == nil {
		return nil
	}
	if err := s.wal.Write(rec); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorageFailed, err)
	}
	return nil
}

// CreateAccount 建立新帳戶
//
// 參數:
//
//	ctx: 上下文
//	cardholderName: 持卡人姓名
//	initialBalance: 初始餘額，負數回傳 ErrInvalidBalance
//
// 回傳:
//
//	*domain.Account: 建立的帳戶 (副本)
//	error: 建立錯誤
func (s *Store) CreateAccount(ctx context.Context, cardholderName string, initialBalance int64) (*domain.Account, error) {
	if initialBalance < 0 {
		return nil, domain.ErrInvalidBalance
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account := domain.NewAccount(cardholderName, initialBalance)
	err := s.journal(&journalRecord{
		Op:             journalOpCreate,
		AccountID:      account.ID,
		CardholderName: account.CardholderName,
		Balance:        account.Balance,
	})
	if err != nil {
		return nil, err
	}
	s.accounts[account.ID] = account

	snapshot := *account
	return &snapshot, nil
}

// GetAccount 取得帳戶
// 回傳副本，避免呼叫端在鎖外改動共享狀態
func (s *Store) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	snapshot := *account
	return &snapshot, nil
}

// WriteBalance 原子性覆寫帳戶餘額
//
// 參數:
//
//	ctx: 上下文
//	id: 帳戶 ID
//	newBalance: 覆寫後的餘額，負數回傳 ErrInvalidBalance
//
// 回傳:
//
//	*domain.Account: 更新後的帳戶 (副本)
//	error: 寫入錯誤
func (s *Store) WriteBalance(ctx context.Context, id uuid.UUID, newBalance int64) (*domain.Account, error) {
	if newBalance < 0 {
		return nil, domain.ErrInvalidBalance
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	err := s.journal(&journalRecord{
		Op:        journalOpWrite,
		AccountID: id,
		Balance:   newBalance,
	})
	if err != nil {
		return nil, err
	}
	account.Balance = newBalance

	snapshot := *account
	return &snapshot, nil
}

// WriteBalancePair 在同一個臨界區內覆寫兩個帳戶的餘額
// 觀察者只會看到兩筆都生效或都未生效
func (s *Store) WriteBalancePair(ctx context.Context, debitID uuid.UUID, debitBalance int64, creditID uuid.UUID, creditBalance int64) error {
	if debitBalance < 0 || creditBalance < 0 {
		return domain.ErrInvalidBalance
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	debitAccount, ok := s.accounts[debitID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	creditAccount, ok := s.accounts[creditID]
	if !ok {
		return domain.ErrAccountNotFound
	}

	// 兩筆餘額落在同一筆 WAL 紀錄，fsync 一次:
	// 中途當機要嘛整筆轉帳都在日誌裡，要嘛都不在
	err := s.journal(&journalRecord{
		Op:            journalOpWritePair,
		AccountID:     debitID,
		Balance:       debitBalance,
		PairAccountID: creditID,
		PairBalance:   creditBalance,
	})
	if err != nil {
		return err
	}
	debitAccount.Balance = debitBalance
	creditAccount.Balance = creditBalance
	return nil
}

// AccountExists 檢查帳戶是否存在
func (s *Store) AccountExists(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.accounts[id]
	return ok, nil
}

var _ usecase.AccountStore = (*Store)(nil)
var _ usecase.PairWriter = (*Store)(nil)

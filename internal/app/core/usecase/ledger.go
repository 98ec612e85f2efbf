package usecase

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
)

// LedgerService 是帳務操作的業務邏輯與並發控制層
//
// 結構:
//
//	store: 帳戶儲存 (唯一的長期狀態擁有者)
//	locks: 帳戶 ID 對應 Mutex 的 Lock Table，懶漢式建立、永不移除 (帳戶不會被刪除)
//
// 每個操作都遵循 驗證 -> 鎖定 -> 讀取 -> 檢查 -> 寫入 -> 解鎖 的流程，
// 任何失敗路徑都在寫入前返回，不會留下可被觀察到的部分寫入
type LedgerService struct {
	store AccountStore
	locks sync.Map // map[uuid.UUID]*sync.Mutex
}

// NewLedgerService 建立一個新的 LedgerService 實例
//
// 參數:
//
//	store: AccountStore 實作 (memory 或 mysql adapter)
//
// 回傳:
//
//	*LedgerService: LedgerService 實例
func NewLedgerService(store AccountStore) *LedgerService {
	return &LedgerService{
		store: store,
	}
}

// lockFor 取得指定帳戶的 Mutex，首次使用時才建立
// LoadOrStore 保證兩個並發呼叫者不會為同一帳戶建立兩把不同的鎖
func (s *LedgerService) lockFor(id uuid.UUID) *sync.Mutex {
	if v, ok := s.locks.Load(id); ok {
		return v.(*sync.Mutex)
	}
	v, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// Create 建立帳戶
//
// 參數:
//
//	ctx: 上下文
//	cardholderName: 持卡人姓名，不可為空
//	initialBalance: 初始餘額，必須 >= 0
//
// 回傳:
//
//	*domain.Account: 建立的帳戶
//	error: ErrCardholderNameRequired / ErrInvalidBalance
func (s *LedgerService) Create(ctx context.Context, cardholderName string, initialBalance int64) (*domain.Account, error) {
	if strings.TrimSpace(cardholderName) == "" {
		return nil, domain.ErrCardholderNameRequired
	}
	if initialBalance < 0 {
		return nil, domain.ErrInvalidBalance
	}
	return s.store.CreateAccount(ctx, cardholderName, initialBalance)
}

// Get 取得帳戶
//
// 回傳:
//
//	*domain.Account: 帳戶
//	error: ErrAccountNotFound
func (s *LedgerService) Get(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return s.store.GetAccount(ctx, id)
}

// Withdraw 提款
//
// 參數:
//
//	ctx: 上下文
//	id: 帳戶 ID
//	amount: 提款金額，必須為正數
//
// 回傳:
//
//	*domain.Account: 提款後的帳戶
//	error: ErrInvalidAmount / ErrAccountNotFound / ErrInsufficientFunds
func (s *LedgerService) Withdraw(ctx context.Context, id uuid.UUID, amount int64) (*domain.Account, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if err := s.ensureExists(ctx, id); err != nil {
		return nil, err
	}

	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	// 等鎖期間餘額可能已被改動，取得鎖後才讀取
	account, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if account.Balance < amount {
		return nil, domain.ErrInsufficientFunds
	}
	return s.store.WriteBalance(ctx, id, account.Balance-amount)
}

// Deposit 存款
//
// 參數:
//
//	ctx: 上下文
//	id: 帳戶 ID
//	amount: 存款金額，必須為正數
//
// 回傳:
//
//	*domain.Account: 存款後的帳戶
//	error: ErrInvalidAmount / ErrAccountNotFound
func (s *LedgerService) Deposit(ctx context.Context, id uuid.UUID, amount int64) (*domain.Account, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if err := s.ensureExists(ctx, id); err != nil {
		return nil, err
	}

	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	account, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.store.WriteBalance(ctx, id, account.Balance+amount)
}

// Transfer 轉帳
//
// 參數:
//
//	ctx: 上下文
//	req: 轉帳請求 (來源、目的、金額)
//
// 回傳:
//
//	error: ErrInvalidAmount / ErrAccountNotFound / ErrInsufficientFunds
//
// 取鎖順序由 req.LockIDs() 決定 (UUID byte 序)，與轉帳方向無關，
// 因此兩筆同時反向搬錢的轉帳也不會互相死鎖
func (s *LedgerService) Transfer(ctx context.Context, req *domain.TransferRequest) error {
	if req.Amount <= 0 {
		return domain.ErrInvalidAmount
	}
	if err := s.ensureExists(ctx, req.SourceID); err != nil {
		return err
	}
	if err := s.ensureExists(ctx, req.DestinationID); err != nil {
		return err
	}

	lockIDs := req.LockIDs()
	for _, id := range lockIDs {
		s.lockFor(id).Lock()
	}
	// 依取得順序的相反順序解鎖
	defer func() {
		for i := len(lockIDs) - 1; i >= 0; i-- {
			s.lockFor(lockIDs[i]).Unlock()
		}
	}()

	source, err := s.store.GetAccount(ctx, req.SourceID)
	if err != nil {
		return err
	}
	if source.Balance < req.Amount {
		return domain.ErrInsufficientFunds
	}

	// 自轉帳: 同額先扣後存，餘額不變
	// 上面已確認帳戶存在且餘額足夠，不需寫入
	if req.SourceID == req.DestinationID {
		return nil
	}

	destination, err := s.store.GetAccount(ctx, req.DestinationID)
	if err != nil {
		return err
	}

	if pw, ok := s.store.(PairWriter); ok {
		return pw.WriteBalancePair(ctx,
			req.SourceID, source.Balance-req.Amount,
			req.DestinationID, destination.Balance+req.Amount)
	}

	// 儲存層沒有成對寫入能力時退回兩次單筆寫入
	// 寫入順序固定為先扣款再入帳，不跟隨取鎖順序:
	// 兩筆寫入之間的觀察者只會看到總額暫時變少，不會看到負餘額或憑空出現的錢
	// 死鎖安全只依賴取鎖順序，與寫入順序無關
	if _, err := s.store.WriteBalance(ctx, req.SourceID, source.Balance-req.Amount); err != nil {
		return err
	}
	_, err = s.store.WriteBalance(ctx, req.DestinationID, destination.Balance+req.Amount)
	return err
}

// ensureExists 鎖定前的存在性檢查，帳戶不存在時回傳 ErrAccountNotFound
func (s *LedgerService) ensureExists(ctx context.Context, id uuid.UUID) error {
	exists, err := s.store.AccountExists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrAccountNotFound
	}
	return nil
}

package domain

import "github.com/google/uuid"

// Account 銀行帳戶
// Balance 使用 int64，以最小貨幣單位 (分) 儲存，避免浮點誤差
// 不變量: 任何可被觀察到的瞬間 Balance >= 0
type Account struct {
	ID             uuid.UUID `json:"id"`
	CardholderName string    `json:"cardholderName"`
	Balance        int64     `json:"balance"`
}

// NewAccount 建立一個新帳戶並分配 ID
func NewAccount(cardholderName string, initialBalance int64) *Account {
	return &Account{
		ID:             uuid.New(),
		CardholderName: cardholderName,
		Balance:        initialBalance,
	}
}

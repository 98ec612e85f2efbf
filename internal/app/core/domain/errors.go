package domain

import "errors"

var (
	// ErrInvalidAmount 金額必須為正數
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInvalidBalance 餘額不可為負數
	ErrInvalidBalance = errors.New("balance must not be negative")

	// ErrInsufficientFunds 餘額不足
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrAccountNotFound 找不到帳戶
	ErrAccountNotFound = errors.New("account not found")

	// ErrCardholderNameRequired 持卡人姓名不可為空
	ErrCardholderNameRequired = errors.New("cardholder name is required")

	// ErrStorageFailed 儲存層 I/O 錯誤
	// 底層原因以 %w 包裝，呼叫端用 errors.Is 判斷、errors.Unwrap 取得
	ErrStorageFailed = errors.New("storage failed")
)

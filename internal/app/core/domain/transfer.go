package domain

import (
	"bytes"

	"github.com/google/uuid"
)

// TransferRequest 轉帳請求
// Source 與 Destination 以帳戶 ID 指定，Amount 必須為正數
type TransferRequest struct {
	SourceID      uuid.UUID `json:"sourceId"`
	DestinationID uuid.UUID `json:"destinationId"`
	Amount        int64     `json:"amount"`
}

// LockIDs 回傳需要鎖定的帳戶 ID，並確保順序以避免死鎖
// 順序採 UUID 的 byte 序比較，與請求宣告的來源/目的方向無關:
// 所有並發轉帳都以同一個全域順序取鎖，等待者不可能形成環
// 來源與目的相同時只回傳一個 ID (同一把非重入鎖不可取兩次)
func (t *TransferRequest) LockIDs() (ids []uuid.UUID) {
	ids = make([]uuid.UUID, 0, 2)
	switch bytes.Compare(t.SourceID[:], t.DestinationID[:]) {
	case -1:
		ids = append(ids, t.SourceID, t.DestinationID)
	case 1:
		ids = append(ids, t.DestinationID, t.SourceID)
	default:
		ids = append(ids, t.SourceID)
	}
	return ids
}

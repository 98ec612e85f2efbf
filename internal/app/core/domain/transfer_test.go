package domain

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
)

func TestLockIDsOrderIndependentOfDirection(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	forward := (&TransferRequest{SourceID: a, DestinationID: b, Amount: 1}).LockIDs()
	reverse := (&TransferRequest{SourceID: b, DestinationID: a, Amount: 1}).LockIDs()

	if len(forward) != 2 || len(reverse) != 2 {
		t.Fatalf("expected two lock ids, got %d and %d", len(forward), len(reverse))
	}
	for i := range forward {
		if forward[i] != reverse[i] {
			t.Fatalf("lock order depends on transfer direction: %v vs %v", forward, reverse)
		}
	}
	if bytes.Compare(forward[0][:], forward[1][:]) >= 0 {
		t.Errorf("lock ids not in byte order: %v", forward)
	}
}

func TestLockIDsSelfTransfer(t *testing.T) {
	id := uuid.New()
	ids := (&TransferRequest{SourceID: id, DestinationID: id, Amount: 1}).LockIDs()

	if len(ids) != 1 {
		t.Fatalf("self transfer should lock a single id, got %v", ids)
	}
	if ids[0] != id {
		t.Errorf("lock id = %v, want %v", ids[0], id)
	}
}

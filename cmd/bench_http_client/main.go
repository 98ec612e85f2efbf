package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
)

const (
	BaseURL     = "http://localhost:8080"
	TotalCount  = 100000
	Concurrency = 200
)

// envelope 與 Server 的回應格式對應
type envelope struct {
	Status string          `json:"status"`
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

func main() {
	client := &http.Client{Timeout: 10 * time.Second}

	// 建立兩個測試帳戶，之後對打轉帳
	alice := createAccount(client, "alice", 1_000_000_000)
	bob := createAccount(client, "bob", 1_000_000_000)
	log.Printf("Created accounts: alice=%s bob=%s", alice.ID, bob.ID)

	var wg sync.WaitGroup
	wg.Add(TotalCount)

	sem := make(chan struct{}, Concurrency)

	startTime := time.Now()

	for i := 0; i < TotalCount; i++ {
		sem <- struct{}{}

		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			// 一半 alice -> bob，一半 bob -> alice，製造反向鎖競爭
			req := domain.TransferRequest{
				SourceID:      alice.ID,
				DestinationID: bob.ID,
				Amount:        100,
			}
			if idx%2 == 1 {
				req.SourceID, req.DestinationID = req.DestinationID, req.SourceID
			}

			if err := transfer(client, &req); err != nil {
				if idx%10000 == 0 {
					log.Printf("Transfer %d failed: %v", idx, err)
				}
			}
		}(i)
	}

	wg.Wait()

	elapsed := time.Since(startTime)
	fmt.Printf("Completed %d requests in %v\n", TotalCount, elapsed)
	fmt.Printf("TPS: %.2f\n", float64(TotalCount)/elapsed.Seconds())

	// 反向等量轉帳，結束後兩帳戶餘額應回到起點 (Conservation check)
	fmt.Printf("alice balance: %d\n", getBalance(client, alice.ID))
	fmt.Printf("bob balance:   %d\n", getBalance(client, bob.ID))
}

func createAccount(client *http.Client, name string, balance int64) *domain.Account {
	q := url.Values{}
	q.Set("cardholderName", name)
	q.Set("balance", fmt.Sprintf("%d", balance))

	resp, err := client.Post(BaseURL+"/account?"+q.Encode(), "application/json", nil)
	if err != nil {
		log.Fatalf("create account failed: %v", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		log.Fatalf("decode create response failed: %v", err)
	}
	if env.Status != "OK" {
		log.Fatalf("create account rejected: %s", env.Error)
	}

	var account domain.Account
	if err := json.Unmarshal(env.Result, &account); err != nil {
		log.Fatalf("decode account failed: %v", err)
	}
	return &account
}

func transfer(client *http.Client, req *domain.TransferRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	resp, err := client.Post(BaseURL+"/account/transfer", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("transfer rejected with status %d", resp.StatusCode)
	}
	return nil
}

func getBalance(client *http.Client, id uuid.UUID) int64 {
	resp, err := client.Get(BaseURL + "/account?id=" + id.String())
	if err != nil {
		log.Fatalf("get account failed: %v", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		log.Fatalf("decode get response failed: %v", err)
	}
	var account domain.Account
	if err := json.Unmarshal(env.Result, &account); err != nil {
		log.Fatalf("decode account failed: %v", err)
	}
	return account.Balance
}

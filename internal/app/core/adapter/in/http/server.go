package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/usecase"
)

// Server 將 LedgerService 掛上 HTTP 路由 (Driving Adapter)
type Server struct {
	ledger *usecase.LedgerService
}

func NewServer(ledger *usecase.LedgerService) *Server {
	return &Server{
		ledger: ledger,
	}
}

// Router 建立 gin.Engine 並註冊路由
// 路徑沿用舊系統: create/get/withdraw/deposit 走 query string，transfer 走 JSON body
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	account := r.Group("/account")
	{
		account.POST("", s.create)
		account.GET("", s.get)
		account.POST("/withdraw", s.withdraw)
		account.POST("/deposit", s.deposit)
		account.POST("/transfer", s.transfer)
	}
	return r
}

// resultEnvelope 統一的回應格式，status 為 OK 或 NE_OK
type resultEnvelope struct {
	Status string `json:"status"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

func respondOK(c *gin.Context, result any) {
	c.JSON(http.StatusOK, resultEnvelope{Status: "OK", Result: result})
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusCodeOf(err), resultEnvelope{Status: "NE_OK", Error: err.Error()})
}

// statusCodeOf 將 Domain 錯誤對應到 HTTP 狀態碼
func statusCodeOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidBalance),
		errors.Is(err, domain.ErrCardholderNameRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// parseID 解析 query string 中的帳戶 ID
func parseID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Query("id"))
	if err != nil {
		return uuid.Nil, errors.New("invalid id: " + err.Error())
	}
	return id, nil
}

// parseAmount 解析 query string 中的金額，值域檢查交給 LedgerService
func parseAmount(c *gin.Context) (int64, error) {
	amount, err := strconv.ParseInt(c.Query("amount"), 10, 64)
	if err != nil {
		return 0, errors.New("invalid amount: " + err.Error())
	}
	return amount, nil
}

// create POST /account?cardholderName=alice&balance=10000
// balance 可省略，預設為 0
func (s *Server) create(c *gin.Context) {
	var initialBalance int64
	if raw := c.Query("balance"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, resultEnvelope{Status: "NE_OK", Error: "invalid balance: " + err.Error()})
			return
		}
		initialBalance = parsed
	}

	account, err := s.ledger.Create(c.Request.Context(), c.Query("cardholderName"), initialBalance)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, account)
}

// get GET /account?id=...
func (s *Server) get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, resultEnvelope{Status: "NE_OK", Error: err.Error()})
		return
	}
	account, err := s.ledger.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, account)
}

// withdraw POST /account/withdraw?id=...&amount=...
func (s *Server) withdraw(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, resultEnvelope{Status: "NE_OK", Error: err.Error()})
		return
	}
	amount, err := parseAmount(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, resultEnvelope{Status: "NE_OK", Error: err.Error()})
		return
	}
	account, err := s.ledger.Withdraw(c.Request.Context(), id, amount)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, account)
}

// deposit POST /account/deposit?id=...&amount=...
func (s *Server) deposit(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, resultEnvelope{Status: "NE_OK", Error: err.Error()})
		return
	}
	amount, err := parseAmount(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, resultEnvelope{Status: "NE_OK", Error: err.Error()})
		return
	}
	account, err := s.ledger.Deposit(c.Request.Context(), id, amount)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, account)
}

// transfer POST /account/transfer，body 為 JSON 的 TransferRequest
func (s *Server) transfer(c *gin.Context) {
	var req domain.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, resultEnvelope{Status: "NE_OK", Error: "invalid body: " + err.Error()})
		return
	}
	if err := s.ledger.Transfer(c.Request.Context(), &req); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, true)
}

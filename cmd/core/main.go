package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	http_adapter "github.com/JoeShih716/go-bank-ledger/internal/app/core/adapter/in/http"
	memory_adapter "github.com/JoeShih716/go-bank-ledger/internal/app/core/adapter/out/memory"
	mysql_adapter "github.com/JoeShih716/go-bank-ledger/internal/app/core/adapter/out/mysql"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-bank-ledger/pkg/mysql"
	"github.com/JoeShih716/go-bank-ledger/pkg/wal"
)

const (
	StoreTypeMemory = "memory"
	StoreTypeMySQL  = "mysql"
)

type Config struct {
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	// Store 選擇儲存後端: "memory" (預設，搭配 WAL) 或 "mysql"
	Store   string       `yaml:"store"`
	WALPath string       `yaml:"wal_path"`
	MySQL   mysql.Config `yaml:"mysql"`
}

func main() {
	// 1. 載入設定
	cfg := loadConfig()

	// 2. 依設定初始化 AccountStore
	var store usecase.AccountStore
	switch cfg.Store {
	case StoreTypeMemory:
		walFile, err := wal.NewWAL(cfg.WALPath)
		if err != nil {
			log.Fatalf("Failed to init WAL: %v", err)
		}
		defer walFile.Close()

		memStore, err := memory_adapter.NewStore(walFile)
		if err != nil {
			log.Fatalf("Failed to init memory store: %v", err)
		}
		store = memStore
		log.Printf("Using memory store with WAL at %s", cfg.WALPath)
	case StoreTypeMySQL:
		dbClient, err := mysql.NewClient(cfg.MySQL)
		if err != nil {
			log.Fatalf("Failed to connect to MySQL: %v", err)
		}
		defer dbClient.Close()

		sqlStore, err := mysql_adapter.NewStore(dbClient)
		if err != nil {
			log.Fatalf("Failed to init MySQL store: %v", err)
		}
		store = sqlStore
		log.Println("Using MySQL store")
	default:
		log.Fatalf("Invalid store type: %q", cfg.Store)
	}

	// 3. 初始化 UseCase 與 HTTP Adapter
	ledger := usecase.NewLedgerService(store)
	server := http_adapter.NewServer(ledger)

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: server.Router(),
	}

	// 4. 啟動 HTTP Server
	go func() {
		log.Printf("Starting HTTP server on %s", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to serve: %v", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}

func loadConfig() Config {
	cfgData, err := os.ReadFile("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(cfgData, &cfg); err != nil {
		log.Fatalf("Failed to parse config: %v", err)
	}

	// 補全預設配置 (如果 yaml 沒寫)
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.Store == "" {
		cfg.Store = StoreTypeMemory
	}
	if cfg.WALPath == "" {
		cfg.WALPath = "wal.log"
	}
	if cfg.MySQL.MaxOpenConns == 0 {
		cfg.MySQL.MaxOpenConns = 100
	}
	if cfg.MySQL.MaxIdleConns == 0 {
		cfg.MySQL.MaxIdleConns = 10
	}
	if cfg.MySQL.ConnMaxLifetime == 0 {
		cfg.MySQL.ConnMaxLifetime = 30 * time.Minute
	}
	return cfg
}

package main

import (
	"context"
	"database/sql"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"

	glog "github.com/goliatone/go-logger/glog"
	_ "github.com/lib/pq"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpc_adapter "github.com/JoeShih716/go-mini-ledger/internal/app/core/adapter/in/grpc"
	kafka_adapter "github.com/JoeShih716/go-mini-ledger/internal/app/core/adapter/out/kafka"
	memory_adapter "github.com/JoeShih716/go-mini-ledger/internal/app/core/adapter/out/memory"
	mysql_adapter "github.com/JoeShih716/go-mini-ledger/internal/app/core/adapter/out/mysql"
	postgres_adapter "github.com/JoeShih716/go-mini-ledger/internal/app/core/adapter/out/postgres"
	"github.com/JoeShih716/go-mini-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-mini-ledger/internal/app/identity"
	"github.com/JoeShih716/go-mini-ledger/internal/config"
	"github.com/JoeShih716/go-mini-ledger/pkg/journal"
	"github.com/JoeShih716/go-mini-ledger/pkg/logging"
	"github.com/JoeShih716/go-mini-ledger/pkg/mysql"
	pb "github.com/JoeShih716/go-mini-ledger/proto"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	envFile := flag.String("env", ".env", "optional .env file")
	flag.Parse()

	// 1. 載入設定
	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		logging.New(logging.Config{}).Fatal("failed to load config", "error", err)
	}
	logger := logging.New(cfg.Log)
	ctx := context.Background()

	// 2. 載入開戶資料
	source, closeSource, err := newAccountSource(cfg, logger)
	if err != nil {
		logger.Fatal("failed to init account source", "source", cfg.Seed.Source, "error", err)
	}
	seeds, err := source.LoadAllAccounts(ctx)
	closeSource()
	if err != nil {
		logger.Fatal("failed to load accounts", "source", cfg.Seed.Source, "error", err)
	}
	logger.Info("accounts loaded", "source", cfg.Seed.Source, "count", len(seeds))

	// 3. 初始化 UseCase 與輸出端 (稽核日誌 / Kafka)
	opts := []usecase.Option{usecase.WithLogger(logger)}
	if cfg.Journal.Path != "" {
		journalFile, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			logger.Fatal("failed to open journal", "path", cfg.Journal.Path, "error", err)
		}
		defer journalFile.Close()
		opts = append(opts, usecase.WithJournal(journalFile))
	}
	if cfg.KafkaEnabled() {
		publisher := kafka_adapter.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer publisher.Close()
		opts = append(opts, usecase.WithPublisher(publisher))
		logger.Info("publishing events", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}
	coreUseCase := usecase.NewCoreUseCase(memory_adapter.NewMutexLedger(), opts...)

	// 4. 開戶並登記密碼
	verifier := identity.NewVerifier(cfg.Identity.BcryptCost)
	if err := coreUseCase.Provision(ctx, seeds); err != nil {
		logger.Fatal("failed to provision accounts", "error", err)
	}
	for _, seed := range seeds {
		if seed.Secret == "" {
			logger.Warn("account has no secret, mutations will be rejected", "account_id", seed.ID)
			continue
		}
		if err := verifier.Register(seed.ID, seed.Secret); err != nil {
			logger.Fatal("failed to register secret", "account_id", seed.ID, "error", err)
		}
	}

	// 5. 啟動 gRPC Server
	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		logger.Fatal("failed to listen", "addr", cfg.GRPC.Addr, "error", err)
	}
	s := grpc.NewServer(grpc.UnaryInterceptor(grpc_adapter.LoggingInterceptor(logger)))
	pb.RegisterLedgerServiceServer(s, grpc_adapter.NewGrpcServer(coreUseCase, verifier, logger))
	healthServer := health.NewServer()
	healthServer.SetServingStatus(pb.LedgerService_ServiceDesc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, healthServer)
	reflection.Register(s)

	go func() {
		logger.Info("starting gRPC server", "addr", cfg.GRPC.Addr)
		if err := s.Serve(lis); err != nil {
			logger.Fatal("failed to serve", "error", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	healthServer.Shutdown()
	s.GracefulStop()
	logger.Info("server exited")
}

// newAccountSource 依設定選擇開戶資料來源；回傳的 close 在載入完成後呼叫
func newAccountSource(cfg config.Config, logger glog.Logger) (usecase.AccountSource, func(), error) {
	switch cfg.Seed.Source {
	case config.SeedSourceMySQL:
		client, err := mysql.NewClient(cfg.MySQL, logger)
		if err != nil {
			return nil, nil, err
		}
		return mysql_adapter.NewAccountSource(client.DB()), func() { _ = client.Close() }, nil
	case config.SeedSourcePostgres:
		db, err := sql.Open(postgres_adapter.DriverName, cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}
		return postgres_adapter.NewAccountSource(db), func() { _ = db.Close() }, nil
	default:
		return config.NewStaticSource(cfg.Seed.Accounts), func() {}, nil
	}
}

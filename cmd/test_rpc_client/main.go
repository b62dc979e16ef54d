package main

import (
	"context"
	"flag"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	grpcpool "github.com/JoeShih716/go-mini-ledger/pkg/grpc"
	"github.com/JoeShih716/go-mini-ledger/pkg/logging"
	pb "github.com/JoeShih716/go-mini-ledger/proto"
)

func main() {
	target := flag.String("target", "localhost:50051", "ledger server address")
	accountID := flag.String("account", "user1", "account to deposit into")
	secret := flag.String("secret", "password123", "account secret")
	amount := flag.String("amount", "1.0", "amount per deposit")
	totalCount := flag.Int("n", 10000, "total requests")
	concurrency := flag.Int("c", 100, "concurrent requests")
	flag.Parse()

	logger := logging.New(logging.Config{Level: "info"})
	depositAmount, err := decimal.NewFromString(*amount)
	if err != nil {
		logger.Fatal("invalid amount", "amount", *amount, "error", err)
	}

	// 每個請求都帶上帳戶密碼
	pool := grpcpool.NewPool(grpcpool.WithInterceptor(
		func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
			ctx = metadata.AppendToOutgoingContext(ctx, pb.MetadataSecretKey, *secret)
			return invoker(ctx, method, req, reply, cc, opts...)
		},
	))
	defer pool.Close()

	conn, err := pool.GetConnection(*target)
	if err != nil {
		logger.Fatal("did not connect", "target", *target, "error", err)
	}
	c := pb.NewLedgerServiceClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	before, err := c.GetBalance(ctx, &pb.GetBalanceRequest{AccountId: *accountID})
	if err != nil {
		logger.Fatal("get balance failed", "account_id", *accountID, "error", err)
	}

	var wg sync.WaitGroup
	var failed atomic.Int64
	sem := make(chan struct{}, *concurrency)
	startTime := time.Now()

	wg.Add(*totalCount)
	for i := 0; i < *totalCount; i++ {
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			_, err := c.Deposit(ctx, &pb.TransactionRequest{
				RefId:     uuid.NewString(),
				AccountId: *accountID,
				Amount:    depositAmount.String(),
			})
			if err != nil {
				failed.Add(1)
				if idx%1000 == 0 {
					logger.Warn("deposit failed", "index", idx, "error", err)
				}
			}
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(startTime)

	after, err := c.GetBalance(ctx, &pb.GetBalanceRequest{AccountId: *accountID})
	if err != nil {
		logger.Fatal("get balance failed", "account_id", *accountID, "error", err)
	}
	beforeBalance, err := decimal.NewFromString(before.Balance)
	if err != nil {
		logger.Fatal("malformed balance", "balance", before.Balance, "error", err)
	}
	afterBalance, err := decimal.NewFromString(after.Balance)
	if err != nil {
		logger.Fatal("malformed balance", "balance", after.Balance, "error", err)
	}
	succeeded := int64(*totalCount) - failed.Load()
	expected := beforeBalance.Add(depositAmount.Mul(decimal.NewFromInt(succeeded)))

	fmt.Printf("Completed %d requests in %v (%d failed)\n", *totalCount, elapsed, failed.Load())
	fmt.Printf("TPS: %.2f\n", float64(*totalCount)/elapsed.Seconds())
	fmt.Printf("Balance: %s -> %s (expected %s)\n", before.Balance, after.Balance, expected)
	if !afterBalance.Equal(expected) {
		logger.Error("balance mismatch, other clients may be writing to the same account",
			"expected", expected.String(),
			"actual", afterBalance.String(),
		)
	}
}

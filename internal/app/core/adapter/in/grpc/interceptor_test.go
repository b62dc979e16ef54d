package grpc

import (
	"context"
	"sync"
	"testing"

	glog "github.com/goliatone/go-logger/glog"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type captureLogger struct {
	mu      sync.Mutex
	entries []map[string]any
}

func (l *captureLogger) Trace(string, ...any) {}
func (l *captureLogger) Info(string, ...any)  {}
func (l *captureLogger) Warn(string, ...any)  {}
func (l *captureLogger) Error(string, ...any) {}
func (l *captureLogger) Fatal(string, ...any) {}

func (l *captureLogger) Debug(msg string, args ...any) {
	entry := map[string]any{"msg": msg}
	for i := 0; i+1 < len(args); i += 2 {
		if key, ok := args[i].(string); ok {
			entry[key] = args[i+1]
		}
	}
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
}

func (l *captureLogger) WithContext(context.Context) glog.Logger { return l }

func TestLoggingInterceptor(t *testing.T) {
	logger := &captureLogger{}
	interceptor := LoggingInterceptor(logger)
	info := &grpclib.UnaryServerInfo{FullMethod: "/ledger.v1.LedgerService/Deposit"}

	resp, err := interceptor(context.Background(), "req", info, func(ctx context.Context, req any) (any, error) {
		return "ok", nil
	})
	if err != nil || resp != "ok" {
		t.Fatalf("unexpected result %v, %v", resp, err)
	}

	_, err = interceptor(context.Background(), "req", info, func(ctx context.Context, req any) (any, error) {
		return nil, status.Error(codes.NotFound, "missing")
	})
	if status.Code(err) != codes.NotFound {
		t.Fatalf("error not passed through: %v", err)
	}

	if len(logger.entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(logger.entries))
	}
	if logger.entries[0]["method"] != info.FullMethod || logger.entries[0]["code"] != "OK" {
		t.Fatalf("unexpected entry %v", logger.entries[0])
	}
	if logger.entries[1]["code"] != "NotFound" {
		t.Fatalf("unexpected entry %v", logger.entries[1])
	}
}

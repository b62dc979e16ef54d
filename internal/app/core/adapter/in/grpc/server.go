package grpc

import (
	"context"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/JoeShih716/go-mini-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-mini-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-mini-ledger/internal/app/identity"
	pb "github.com/JoeShih716/go-mini-ledger/proto"
)

// errorDomain 放在 ErrorInfo.Domain
const errorDomain = "ledger.v1"

// Authenticator 身分驗證 (帳本以外的協作者)
//
// Prepare 只檢查並雜湊密碼，Enroll 才綁定帳戶；開戶時先 Prepare，
// 密碼不合法就不會留下沒有密碼的帳戶
type Authenticator interface {
	Prepare(secret string) (identity.Credential, error)
	Enroll(accountID string, cred identity.Credential) error
	Verify(ctx context.Context, accountID, secret string) error
}

type GrpcServer struct {
	pb.UnimplementedLedgerServiceServer
	core   *usecase.CoreUseCase
	auth   Authenticator
	logger glog.Logger
}

func NewGrpcServer(core *usecase.CoreUseCase, auth Authenticator, logger glog.Logger) *GrpcServer {
	return &GrpcServer{
		core:   core,
		auth:   auth,
		logger: glog.Ensure(logger),
	}
}

// Login 驗證帳戶密碼
func (s *GrpcServer) Login(ctx context.Context, req *pb.LoginRequest) (*pb.LoginResponse, error) {
	if err := s.auth.Verify(ctx, req.AccountId, req.Secret); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &pb.LoginResponse{
		Success:   true,
		AccountId: req.AccountId,
	}, nil
}

func (s *GrpcServer) GetBalance(ctx context.Context, req *pb.GetBalanceRequest) (*pb.GetBalanceResponse, error) {
	balance, err := s.core.GetAccountBalance(ctx, req.AccountId)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &pb.GetBalanceResponse{
		AccountId: req.AccountId,
		Balance:   balance.String(),
	}, nil
}

func (s *GrpcServer) Deposit(ctx context.Context, req *pb.TransactionRequest) (*pb.TransactionResponse, error) {
	return s.post(ctx, req, domain.TransactionTypeDeposit)
}

func (s *GrpcServer) Withdraw(ctx context.Context, req *pb.TransactionRequest) (*pb.TransactionResponse, error) {
	return s.post(ctx, req, domain.TransactionTypeWithdraw)
}

// post 存提款共用流程：驗證身分 → 解析 ref_id → 交給核心
func (s *GrpcServer) post(ctx context.Context, req *pb.TransactionRequest, txType domain.TransactionType) (*pb.TransactionResponse, error) {
	// 1. 身分驗證，必須在進入帳本前完成
	if err := s.authorize(ctx, req.AccountId); err != nil {
		return nil, s.toStatus(ctx, err)
	}

	// 2. UUID 解析 (可省略，由核心產生)
	refID := uuid.Nil
	if req.RefId != "" {
		u, err := uuid.Parse(req.RefId)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, "invalid ref_id: "+err.Error())
		}
		refID = u
	}

	// 3. 金額解析
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	// 4. 執行交易
	var receipt domain.Receipt
	switch txType {
	case domain.TransactionTypeDeposit:
		receipt, err = s.core.Deposit(ctx, refID, req.AccountId, amount)
	default:
		receipt, err = s.core.Withdraw(ctx, refID, req.AccountId, amount)
	}
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &pb.TransactionResponse{
		TransactionId: receipt.Transaction.TransactionID.String(),
		Sequence:      receipt.Transaction.Sequence,
		Balance:       receipt.Balance.String(),
		Replayed:      receipt.Replayed,
	}, nil
}

func (s *GrpcServer) GetTransactions(ctx context.Context, req *pb.GetTransactionsRequest) (*pb.GetTransactionsResponse, error) {
	history, err := s.core.GetTransactions(ctx, req.AccountId)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	records := make([]*pb.TransactionRecord, 0, len(history))
	for _, tran := range history {
		records = append(records, &pb.TransactionRecord{
			TransactionId: tran.TransactionID.String(),
			Sequence:      tran.Sequence,
			Type:          toProtoType(tran.Type),
			Amount:        tran.Amount.String(),
			BalanceAfter:  tran.BalanceAfter.String(),
			CreatedAt:     timestamppb.New(tran.CreatedAt),
		})
	}
	return &pb.GetTransactionsResponse{
		AccountId:    req.AccountId,
		Transactions: records,
	}, nil
}

// OpenAccount 開戶並登記密碼
//
// 順序: 檢查密碼 → 解析初始餘額 → 開戶 → 綁定密碼。
// 開戶前的步驟失敗不留下任何狀態；開戶失敗 (例如已存在) 不會覆蓋既有密碼
func (s *GrpcServer) OpenAccount(ctx context.Context, req *pb.OpenAccountRequest) (*pb.OpenAccountResponse, error) {
	cred, err := s.auth.Prepare(req.Secret)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	initial := decimal.Zero
	if strings.TrimSpace(req.InitialBalance) != "" {
		if initial, err = parseAmount(req.InitialBalance); err != nil {
			return nil, s.toStatus(ctx, err)
		}
	}
	if err := s.core.OpenAccount(ctx, req.AccountId, initial); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	if err := s.auth.Enroll(req.AccountId, cred); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &pb.OpenAccountResponse{
		AccountId: req.AccountId,
		Balance:   initial.String(),
	}, nil
}

// parseAmount 解析十進位字串，格式錯誤視為 ErrInvalidAmount。
// 正負與精度由帳本檢查
func parseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%w: amount is required", domain.ErrInvalidAmount)
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a decimal", domain.ErrInvalidAmount, raw)
	}
	return amount, nil
}

func toProtoType(t domain.TransactionType) pb.TransactionType {
	switch t {
	case domain.TransactionTypeDeposit:
		return pb.TransactionType_DEPOSIT
	case domain.TransactionTypeWithdraw:
		return pb.TransactionType_WITHDRAW
	default:
		return pb.TransactionType_TRANSACTION_TYPE_UNSPECIFIED
	}
}

// authorize 從 metadata 取出密碼並驗證
func (s *GrpcServer) authorize(ctx context.Context, accountID string) error {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return domain.ErrUnauthenticated
	}
	values := md.Get(pb.MetadataSecretKey)
	if len(values) == 0 {
		return domain.ErrUnauthenticated
	}
	return s.auth.Verify(ctx, accountID, values[0])
}

// toStatus 將錯誤轉為 gRPC status，並附上 ErrorInfo (Reason 為穩定錯誤代碼)
func (s *GrpcServer) toStatus(ctx context.Context, err error) error {
	mapped := usecase.MapError(err)
	code := grpcCode(mapped.Category)
	if code == codes.Internal {
		s.logger.WithContext(ctx).Error("request failed", "error", err)
	}

	st := status.New(code, mapped.Message)
	withDetails, detailErr := st.WithDetails(&errdetails.ErrorInfo{
		Reason: mapped.TextCode,
		Domain: errorDomain,
	})
	if detailErr != nil {
		return st.Err()
	}
	return withDetails.Err()
}

func grpcCode(category goerrors.Category) codes.Code {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return codes.InvalidArgument
	case goerrors.CategoryNotFound:
		return codes.NotFound
	case goerrors.CategoryOperation:
		return codes.FailedPrecondition
	case goerrors.CategoryConflict:
		return codes.AlreadyExists
	case goerrors.CategoryAuth:
		return codes.Unauthenticated
	case goerrors.CategoryAuthz:
		return codes.PermissionDenied
	default:
		return codes.Internal
	}
}

var _ pb.LedgerServiceServer = (*GrpcServer)(nil)

package deposit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redcloud442/aurora/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MaxReceiptBytes caps the size of an uploaded receipt
const MaxReceiptBytes = 12 << 20

// Receipt is the payment proof attached to a deposit request
type Receipt struct {
	FileName string
	Body     []byte
}

// RequestDepositInput represents the input for a deposit request
type RequestDepositInput struct {
	Amount        decimal.Decimal
	TopUpMode     string
	AccountName   string
	AccountNumber string
	Receipt       Receipt
}

// Recorder journals ledger entries so they are visible immediately
type Recorder interface {
	Record(entry *domain.LedgerEntry) error
}

// DepositService handles top-up requests
type DepositService struct {
	MemberID uuid.UUID
	Receipts domain.ReceiptStore
	History  Recorder
	Backend  domain.Backend
	Limiter  domain.RequestLimiter // optional

	now    func() time.Time
	logger *zap.Logger
}

// NewDepositService creates a new DepositService instance
func NewDepositService(
	memberID uuid.UUID,
	receipts domain.ReceiptStore,
	history Recorder,
	backend domain.Backend,
	logger *zap.Logger,
) *DepositService {
	return &DepositService{
		MemberID: memberID,
		Receipts: receipts,
		History:  history,
		Backend:  backend,
		now:      time.Now,
		logger:   logger.With(zap.String("component", "deposit"), zap.String("member_id", memberID.String())),
	}
}

// WithClock overrides the time source used for receipt keys and daily windows
func (s *DepositService) WithClock(now func() time.Time) *DepositService {
	s.now = now
	return s
}

// RequestDeposit uploads the receipt and submits a top-up request.
// Deposits are credited by an administrator, so the earnings buckets are not touched.
func (s *DepositService) RequestDeposit(ctx context.Context, input RequestDepositInput) (*domain.DepositRequest, error) {
	now := s.now()
	req := &domain.DepositRequest{
		ID:            uuid.New(),
		MemberID:      s.MemberID,
		Amount:        input.Amount,
		TopUpMode:     input.TopUpMode,
		AccountName:   input.AccountName,
		AccountNumber: input.AccountNumber,
		Status:        domain.RequestStatusPending,
		CreatedAt:     now,
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if err := validateReceipt(input.Receipt); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if s.Receipts == nil {
		return nil, errors.New("receipt storage is not configured")
	}

	key := fmt.Sprintf("deposit:%s:%s", s.MemberID, now.Format("2006-01-02"))
	if s.Limiter != nil {
		reserved, err := s.Limiter.Reserve(ctx, key, domain.RequestWindowEnd(now))
		if err != nil {
			return nil, fmt.Errorf("%w: reserve deposit allowance: %v", domain.ErrNetworkFailure, err)
		}
		if !reserved {
			return nil, fmt.Errorf("%w: deposit", domain.ErrRequestPending)
		}
	}

	url, err := s.Receipts.Upload(ctx, ReceiptKey(now, input.Receipt.FileName),
		http.DetectContentType(input.Receipt.Body), input.Receipt.Body)
	if err != nil {
		s.release(key)
		return nil, fmt.Errorf("%w: upload receipt: %v", domain.ErrNetworkFailure, err)
	}
	req.ReceiptURL = url

	accepted, err := s.Backend.SubmitDeposit(ctx, req)
	if err != nil {
		s.release(key)
		return nil, fmt.Errorf("%w: %v", domain.ErrNetworkFailure, err)
	}
	if !accepted {
		s.release(key)
		return nil, fmt.Errorf("%w: deposit", domain.ErrRequestRejected)
	}

	entry := &domain.LedgerEntry{
		ID:          req.ID,
		MemberID:    s.MemberID,
		Type:        domain.TransactionTypeDeposit,
		Description: req.TopUpMode + " Deposit",
		Details:     req.AccountName + " " + req.AccountNumber,
		Amount:      req.Amount,
		Attachment:  req.ReceiptURL,
		Date:        now,
	}
	if err := s.History.Record(entry); err != nil {
		s.logger.Warn("failed to journal deposit", zap.Error(err))
	}

	s.logger.Info("deposit requested",
		zap.String("request_id", req.ID.String()),
		zap.String("amount", req.Amount.StringFixed(2)),
		zap.String("receipt", url),
	)
	return req, nil
}

// ReceiptKey returns the object key a receipt is stored under
func ReceiptKey(at time.Time, fileName string) string {
	return fmt.Sprintf("uploads/%d_%s", at.UnixMilli(), path.Base(fileName))
}

func validateReceipt(r Receipt) error {
	name := strings.TrimSpace(r.FileName)
	if name == "" || name == "." || name == "/" {
		return errors.New("receipt file name cannot be empty")
	}
	if len(r.Body) == 0 {
		return errors.New("receipt cannot be empty")
	}
	if len(r.Body) > MaxReceiptBytes {
		return fmt.Errorf("receipt exceeds the %d MB limit", MaxReceiptBytes>>20)
	}
	if !strings.HasPrefix(http.DetectContentType(r.Body), "image/") {
		return errors.New("receipt must be an image")
	}
	return nil
}

func (s *DepositService) release(key string) {
	if s.Limiter == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Limiter.Release(ctx, key); err != nil {
		s.logger.Warn("failed to release deposit allowance", zap.String("key", key), zap.Error(err))
	}
}

package grpc

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/redcloud442/aurora/internal/adapter/auth"
	aurorav1 "github.com/redcloud442/aurora/internal/adapter/grpc/aurora/v1"
	"github.com/redcloud442/aurora/internal/domain"
	"github.com/redcloud442/aurora/internal/usecase/dashboard"
	"github.com/redcloud442/aurora/internal/usecase/deposit"
	"github.com/redcloud442/aurora/internal/usecase/history"
	"github.com/redcloud442/aurora/internal/usecase/withdrawal"
)

// Server implements the aurora.v1.DashboardService gRPC server
type Server struct {
	aurorav1.UnimplementedDashboardServiceServer

	DashboardService *dashboard.DashboardService
}

// NewServer creates a new gRPC server instance
func NewServer(dashboardService *dashboard.DashboardService) *Server {
	return &Server{
		DashboardService: dashboardService,
	}
}

// session resolves the caller's dashboard session from the authenticated context
func (s *Server) session(ctx context.Context) (*dashboard.Session, error) {
	memberID, ok := auth.MemberIDFrom(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing member identity")
	}
	session, err := s.DashboardService.Session(ctx, memberID)
	if err != nil {
		return nil, mapError(err)
	}
	return session, nil
}

// GetEarnings handles the GetEarnings RPC
func (s *Server) GetEarnings(ctx context.Context, req *aurorav1.GetEarningsRequest) (*aurorav1.GetEarningsResponse, error) {
	session, err := s.session(ctx)
	if err != nil {
		return nil, err
	}

	return &aurorav1.GetEarningsResponse{
		Earnings: earningsToProto(session.Earnings.Snapshot()),
	}, nil
}

// ListPackages handles the ListPackages RPC
func (s *Server) ListPackages(ctx context.Context, req *aurorav1.ListPackagesRequest) (*aurorav1.ListPackagesResponse, error) {
	session, err := s.session(ctx)
	if err != nil {
		return nil, err
	}

	views := session.Packages()
	packages := make([]*aurorav1.Package, 0, len(views))
	for _, v := range views {
		packages = append(packages, packageToProto(v))
	}

	return &aurorav1.ListPackagesResponse{Packages: packages}, nil
}

// ClaimPackage handles the ClaimPackage RPC
func (s *Server) ClaimPackage(ctx context.Context, req *aurorav1.ClaimPackageRequest) (*aurorav1.ClaimPackageResponse, error) {
	positionID, err := uuid.Parse(req.PositionId)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid position_id format: %v", err)
	}

	session, err := s.session(ctx)
	if err != nil {
		return nil, err
	}

	result, err := session.Claims.Claim(ctx, positionID)
	if err != nil {
		return nil, mapError(err)
	}

	return &aurorav1.ClaimPackageResponse{
		PositionId:    result.Position.ID.String(),
		Payout:        result.Payout.StringFixed(2),
		Earnings:      earningsToProto(result.Earnings),
		TransactionId: result.Entry.ID.String(),
		ClaimedAt:     timestamppb.New(result.Entry.Date),
	}, nil
}

// RequestWithdrawal handles the RequestWithdrawal RPC
func (s *Server) RequestWithdrawal(ctx context.Context, req *aurorav1.RequestWithdrawalRequest) (*aurorav1.RequestWithdrawalResponse, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid amount format: %v", err)
	}

	session, err := s.session(ctx)
	if err != nil {
		return nil, err
	}

	input := withdrawal.RequestWithdrawalInput{
		Source:        domain.EarningsSource(req.Source),
		Bank:          req.Bank,
		AccountName:   req.AccountName,
		AccountNumber: req.AccountNumber,
		Amount:        amount,
	}

	request, err := session.Withdrawals.RequestWithdrawal(ctx, input)
	if err != nil {
		return nil, mapError(err)
	}

	return &aurorav1.RequestWithdrawalResponse{
		RequestId: request.ID.String(),
		Status:    string(request.Status),
		Earnings:  earningsToProto(session.Earnings.Snapshot()),
		CreatedAt: timestamppb.New(request.CreatedAt),
	}, nil
}

// RequestDeposit handles the RequestDeposit RPC
func (s *Server) RequestDeposit(ctx context.Context, req *aurorav1.RequestDepositRequest) (*aurorav1.RequestDepositResponse, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid amount format: %v", err)
	}

	session, err := s.session(ctx)
	if err != nil {
		return nil, err
	}

	input := deposit.RequestDepositInput{
		Amount:        amount,
		TopUpMode:     req.TopUpMode,
		AccountName:   req.AccountName,
		AccountNumber: req.AccountNumber,
		Receipt: deposit.Receipt{
			FileName: req.ReceiptFileName,
			Body:     req.Receipt,
		},
	}

	request, err := session.Deposits.RequestDeposit(ctx, input)
	if err != nil {
		return nil, mapError(err)
	}

	return &aurorav1.RequestDepositResponse{
		RequestId:  request.ID.String(),
		Status:     string(request.Status),
		ReceiptUrl: request.ReceiptURL,
		CreatedAt:  timestamppb.New(request.CreatedAt),
	}, nil
}

// ListTransactions handles the ListTransactions RPC
func (s *Server) ListTransactions(ctx context.Context, req *aurorav1.ListTransactionsRequest) (*aurorav1.ListTransactionsResponse, error) {
	tab := domain.HistoryTab(req.Tab)
	if tab.Types() == nil {
		return nil, status.Errorf(codes.InvalidArgument, "tab must be EARNINGS, WITHDRAWAL or DEPOSIT")
	}

	page := int(req.Page)
	if page == 0 {
		page = 1
	}
	if page < 0 {
		return nil, status.Errorf(codes.InvalidArgument, "page must be positive")
	}

	session, err := s.session(ctx)
	if err != nil {
		return nil, err
	}

	result, err := session.History.Transactions(ctx, tab, page)
	if err != nil {
		return nil, mapError(err)
	}

	return &aurorav1.ListTransactionsResponse{
		Transactions: entriesToProto(result.Rows),
		Recent:       entriesToProto(session.History.Ledger.Recent(tab)),
		Total:        int32(result.Total),
		HasNext:      result.HasNext,
	}, nil
}

// ListBounties handles the ListBounties RPC
func (s *Server) ListBounties(ctx context.Context, req *aurorav1.ListBountiesRequest) (*aurorav1.ListBountiesResponse, error) {
	level := domain.BountyLevel(req.Level)
	if level != domain.BountyLevelAlly && level != domain.BountyLevelLegion {
		return nil, status.Errorf(codes.InvalidArgument, "level must be ALLY or LEGION")
	}

	page := int(req.Page)
	if page == 0 {
		page = 1
	}
	if page < 0 {
		return nil, status.Errorf(codes.InvalidArgument, "page must be positive")
	}

	session, err := s.session(ctx)
	if err != nil {
		return nil, err
	}

	result, err := session.History.Bounties(ctx, level, page)
	if err != nil {
		return nil, mapError(err)
	}

	bounties := make([]*aurorav1.Bounty, 0, len(result.Rows))
	for _, b := range result.Rows {
		bounties = append(bounties, &aurorav1.Bounty{
			ReferredMemberId:    b.ReferredMemberID.String(),
			ReferredUsername:    b.ReferredUsername,
			Level:               string(b.Level),
			TotalBountyEarnings: b.TotalBountyEarnings.StringFixed(2),
			Date:                timestamppb.New(b.Date),
		})
	}

	return &aurorav1.ListBountiesResponse{
		Bounties: bounties,
		Total:    int32(result.Total),
		HasNext:  result.HasNext,
	}, nil
}

// Refresh handles the Refresh RPC
func (s *Server) Refresh(ctx context.Context, req *aurorav1.RefreshRequest) (*aurorav1.RefreshResponse, error) {
	memberID, ok := auth.MemberIDFrom(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing member identity")
	}

	session, err := s.DashboardService.Refresh(ctx, memberID)
	if err != nil {
		return nil, mapError(err)
	}

	return &aurorav1.RefreshResponse{
		Earnings:     earningsToProto(session.Earnings.Snapshot()),
		PackageCount: int32(len(session.Positions.List())),
	}, nil
}

func earningsToProto(a domain.EarningsAggregate) *aurorav1.Earnings {
	return &aurorav1.Earnings{
		PackageEarnings:  a.PackageEarnings.StringFixed(2),
		ReferralEarnings: a.ReferralEarnings.StringFixed(2),
		CombinedEarnings: a.CombinedEarnings.StringFixed(2),
	}
}

func packageToProto(v dashboard.PackageView) *aurorav1.Package {
	return &aurorav1.Package{
		Id:              v.Position.ID.String(),
		PackageName:     v.Position.PackageName,
		Principal:       v.Position.Principal.StringFixed(2),
		Profit:          v.Position.Profit.StringFixed(2),
		StartTime:       timestamppb.New(v.Position.StartTime),
		MaturityTime:    timestamppb.New(v.Position.MaturityTime),
		ColorTag:        v.Position.ColorTag,
		PercentComplete: v.Projection.PercentComplete.StringFixed(2),
		CurrentValue:    v.Projection.CurrentValue.StringFixed(2),
		ReadyToClaim:    v.Projection.ReadyToClaim,
		State:           string(v.State),
	}
}

func entriesToProto(entries []*domain.LedgerEntry) []*aurorav1.Transaction {
	out := make([]*aurorav1.Transaction, 0, len(entries))
	for _, e := range entries {
		out = append(out, &aurorav1.Transaction{
			Id:          e.ID.String(),
			Type:        string(e.Type),
			Description: e.Description,
			Details:     e.Details,
			Amount:      e.Amount.StringFixed(2),
			Attachment:  e.Attachment,
			Date:        timestamppb.New(e.Date),
		})
	}
	return out
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	errorMsg := err.Error()

	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, history.ErrInvalidPage):
		return status.Errorf(codes.InvalidArgument, "%s", errorMsg)
	case errors.Is(err, domain.ErrUnauthorized):
		return status.Errorf(codes.Unauthenticated, "%s", errorMsg)
	case errors.Is(err, domain.ErrNotFound):
		return status.Errorf(codes.NotFound, "%s", errorMsg)
	case errors.Is(err, domain.ErrClaimConflict), errors.Is(err, domain.ErrRequestPending):
		return status.Errorf(codes.AlreadyExists, "%s", errorMsg)
	case errors.Is(err, domain.ErrNotReady), errors.Is(err, domain.ErrInsufficientEarnings):
		return status.Errorf(codes.FailedPrecondition, "%s", errorMsg)
	case errors.Is(err, domain.ErrClaimRejected), errors.Is(err, domain.ErrRequestRejected):
		return status.Errorf(codes.PermissionDenied, "%s", errorMsg)
	case errors.Is(err, domain.ErrNetworkFailure):
		return status.Errorf(codes.Unavailable, "%s", errorMsg)
	}

	// Default to Internal error for unknown errors
	return status.Errorf(codes.Internal, "%s", errorMsg)
}

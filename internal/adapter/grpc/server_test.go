package grpc

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	aurorav1 "github.com/redcloud442/aurora/internal/adapter/grpc/aurora/v1"
	"github.com/redcloud442/aurora/internal/domain"
	"github.com/redcloud442/aurora/internal/usecase/claim"
	"github.com/redcloud442/aurora/internal/usecase/dashboard"
)

type stubPositions struct{ positions []*domain.PackagePosition }

func (s stubPositions) ListActive(context.Context, uuid.UUID) ([]*domain.PackagePosition, error) {
	return s.positions, nil
}

func (s stubPositions) GetByID(context.Context, uuid.UUID) (*domain.PackagePosition, error) {
	return nil, domain.ErrNotFound
}

type stubEarnings struct{ packageEarnings, referralEarnings decimal.Decimal }

func (s stubEarnings) Get(_ context.Context, memberID uuid.UUID) (*domain.EarningsAggregate, error) {
	a := domain.NewEarningsAggregate(memberID, s.packageEarnings, s.referralEarnings)
	return &a, nil
}

type stubLedger struct{ entries []*domain.LedgerEntry }

func (s stubLedger) List(_ context.Context, _ uuid.UUID, tab domain.HistoryTab, limit, offset int) ([]*domain.LedgerEntry, error) {
	var out []*domain.LedgerEntry
	for _, e := range s.entries {
		if tab.Includes(e.Type) {
			out = append(out, e)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

func (s stubLedger) Count(_ context.Context, _ uuid.UUID, tab domain.HistoryTab) (int, error) {
	n := 0
	for _, e := range s.entries {
		if tab.Includes(e.Type) {
			n++
		}
	}
	return n, nil
}

type stubBounties struct{}

func (stubBounties) List(_ context.Context, memberID uuid.UUID, level domain.BountyLevel, _, _ int) ([]*domain.ReferralBounty, error) {
	return []*domain.ReferralBounty{{
		MemberID:            memberID,
		ReferredMemberID:    uuid.New(),
		ReferredUsername:    "ally01",
		Level:               level,
		TotalBountyEarnings: decimal.NewFromInt(25),
		Date:                time.Now(),
	}}, nil
}

func (stubBounties) Count(context.Context, uuid.UUID, domain.BountyLevel) (int, error) { return 1, nil }

type stubBackend struct {
	mu       sync.Mutex
	accept   bool
	err      error
	deposits []*domain.DepositRequest
}

func (b *stubBackend) ConfirmClaim(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return b.accept, b.err
}

func (b *stubBackend) SubmitWithdrawal(context.Context, *domain.WithdrawalRequest) (bool, error) {
	return b.accept, b.err
}

func (b *stubBackend) SubmitDeposit(_ context.Context, req *domain.DepositRequest) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deposits = append(b.deposits, req)
	return b.accept, b.err
}

type stubReceipts struct{}

func (stubReceipts) Upload(_ context.Context, key, _ string, _ []byte) (string, error) {
	return "https://cdn.example.test/" + key, nil
}

const testToken = "Bearer member-token"

type fixture struct {
	client   aurorav1.DashboardServiceClient
	health   healthpb.HealthClient
	memberID uuid.UUID
	matured  *domain.PackagePosition
	running  *domain.PackagePosition
	backend  *stubBackend
}

func newFixture(t *testing.T, ledger stubLedger) *fixture {
	t.Helper()

	memberID := uuid.New()
	now := time.Now()
	matured, err := domain.NewPackagePosition(uuid.New(), memberID, "Starter",
		decimal.NewFromInt(100), decimal.NewFromInt(20), now.Add(-2*time.Hour), now.Add(-time.Hour), "blue")
	require.NoError(t, err)
	running, err := domain.NewPackagePosition(uuid.New(), memberID, "Premium",
		decimal.NewFromInt(1000), decimal.NewFromInt(300), now.Add(-time.Hour), now.Add(time.Hour), "gold")
	require.NoError(t, err)

	backend := &stubBackend{accept: true}
	svc := dashboard.NewDashboardService(
		stubPositions{[]*domain.PackagePosition{matured, running}},
		stubEarnings{packageEarnings: decimal.NewFromInt(500), referralEarnings: decimal.NewFromInt(50)},
		ledger, stubBounties{}, backend,
		dashboard.Options{FrameInterval: 10 * time.Millisecond}, zap.NewNop())
	svc.Receipts = stubReceipts{}
	t.Cleanup(svc.Close)

	listener := bufconn.Listen(1 << 20)
	server := gogrpc.NewServer(gogrpc.ChainUnaryInterceptor(
		LoggingInterceptor(zap.NewNop()),
		AuthInterceptor(tokenAuthenticator{testToken: memberID}),
	))
	aurorav1.RegisterDashboardServiceServer(server, NewServer(svc))
	healthpb.RegisterHealthServer(server, health.NewServer())
	go func() { _ = server.Serve(listener) }()
	t.Cleanup(server.Stop)

	conn, err := gogrpc.NewClient("passthrough:///bufnet",
		gogrpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		gogrpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &fixture{
		client:   aurorav1.NewDashboardServiceClient(conn),
		health:   healthpb.NewHealthClient(conn),
		memberID: memberID,
		matured:  matured,
		running:  running,
		backend:  backend,
	}
}

func authed() context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", testToken)
}

func TestServer_RequiresAuthentication(t *testing.T) {
	f := newFixture(t, stubLedger{})

	_, err := f.client.GetEarnings(context.Background(), &aurorav1.GetEarningsRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestServer_HealthCheckWithoutToken(t *testing.T) {
	f := newFixture(t, stubLedger{})

	resp, err := f.health.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	_, err = f.client.GetEarnings(context.Background(), &aurorav1.GetEarningsRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestServer_GetEarningsAndPackages(t *testing.T) {
	f := newFixture(t, stubLedger{})

	earnings, err := f.client.GetEarnings(authed(), &aurorav1.GetEarningsRequest{})
	require.NoError(t, err)
	assert.Equal(t, "500.00", earnings.Earnings.PackageEarnings)
	assert.Equal(t, "50.00", earnings.Earnings.ReferralEarnings)
	assert.Equal(t, "550.00", earnings.Earnings.CombinedEarnings)

	packages, err := f.client.ListPackages(authed(), &aurorav1.ListPackagesRequest{})
	require.NoError(t, err)
	require.Len(t, packages.Packages, 2)

	byID := map[string]*aurorav1.Package{}
	for _, p := range packages.Packages {
		byID[p.Id] = p
	}
	matured := byID[f.matured.ID.String()]
	require.NotNil(t, matured)
	assert.True(t, matured.ReadyToClaim)
	assert.Equal(t, "100.00", matured.PercentComplete)
	assert.Equal(t, "120.00", matured.CurrentValue)
	assert.Equal(t, f.matured.MaturityTime.Unix(), matured.MaturityTime.AsTime().Unix())

	running := byID[f.running.ID.String()]
	require.NotNil(t, running)
	assert.False(t, running.ReadyToClaim)
}

func TestServer_ClaimPackage(t *testing.T) {
	f := newFixture(t, stubLedger{})

	resp, err := f.client.ClaimPackage(authed(), &aurorav1.ClaimPackageRequest{PositionId: f.matured.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, "120.00", resp.Payout)
	assert.Equal(t, "620.00", resp.Earnings.PackageEarnings)
	assert.Equal(t, "670.00", resp.Earnings.CombinedEarnings)

	// claimed positions leave the active set
	_, err = f.client.ClaimPackage(authed(), &aurorav1.ClaimPackageRequest{PositionId: f.matured.ID.String()})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	_, err = f.client.ClaimPackage(authed(), &aurorav1.ClaimPackageRequest{PositionId: f.running.ID.String()})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = f.client.ClaimPackage(authed(), &aurorav1.ClaimPackageRequest{PositionId: "not-a-uuid"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	history, err := f.client.ListTransactions(authed(), &aurorav1.ListTransactionsRequest{Tab: "EARNINGS"})
	require.NoError(t, err)
	require.Len(t, history.Recent, 1)
	assert.Equal(t, "Starter Package Claimed", history.Recent[0].Description)
	assert.Equal(t, resp.TransactionId, history.Recent[0].Id)
}

func TestServer_ClaimPackage_BackendUnavailable(t *testing.T) {
	f := newFixture(t, stubLedger{})
	f.backend.err = errors.New("connection reset")

	_, err := f.client.ClaimPackage(authed(), &aurorav1.ClaimPackageRequest{PositionId: f.matured.ID.String()})
	assert.Equal(t, codes.Unavailable, status.Code(err))

	earnings, err := f.client.GetEarnings(authed(), &aurorav1.GetEarningsRequest{})
	require.NoError(t, err)
	assert.Equal(t, "500.00", earnings.Earnings.PackageEarnings)
}

func TestServer_RequestWithdrawal(t *testing.T) {
	f := newFixture(t, stubLedger{})

	resp, err := f.client.RequestWithdrawal(authed(), &aurorav1.RequestWithdrawalRequest{
		Source:        "PACKAGE",
		Bank:          "Gcash",
		AccountName:   "Juan Dela Cruz",
		AccountNumber: "09171234567",
		Amount:        "100.00",
	})
	require.NoError(t, err)
	assert.Equal(t, "PENDING", resp.Status)
	assert.Equal(t, "400.00", resp.Earnings.PackageEarnings)

	_, err = f.client.RequestWithdrawal(authed(), &aurorav1.RequestWithdrawalRequest{
		Source: "REFERRAL", Bank: "Gcash", AccountName: "Juan", AccountNumber: "1", Amount: "75",
	})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = f.client.RequestWithdrawal(authed(), &aurorav1.RequestWithdrawalRequest{
		Source: "PACKAGE", Bank: "Unknown Bank", AccountName: "Juan", AccountNumber: "1", Amount: "5",
	})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = f.client.RequestWithdrawal(authed(), &aurorav1.RequestWithdrawalRequest{Amount: "abc"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestServer_RequestDeposit(t *testing.T) {
	f := newFixture(t, stubLedger{})
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)

	resp, err := f.client.RequestDeposit(authed(), &aurorav1.RequestDepositRequest{
		Amount:          "250",
		TopUpMode:       "Gcash",
		AccountName:     "Juan Dela Cruz",
		AccountNumber:   "09171234567",
		ReceiptFileName: "receipt.png",
		Receipt:         png,
	})
	require.NoError(t, err)
	assert.Equal(t, "PENDING", resp.Status)
	assert.Contains(t, resp.ReceiptUrl, "receipt.png")
	require.Len(t, f.backend.deposits, 1)
	assert.True(t, decimal.NewFromInt(250).Equal(f.backend.deposits[0].Amount))

	_, err = f.client.RequestDeposit(authed(), &aurorav1.RequestDepositRequest{
		Amount: "250", TopUpMode: "Gcash", AccountName: "Juan", AccountNumber: "1",
		ReceiptFileName: "notes.txt", Receipt: []byte("plain text"),
	})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestServer_ListTransactionsAndBounties(t *testing.T) {
	memberID := uuid.New()
	var entries []*domain.LedgerEntry
	for i := 0; i < 12; i++ {
		entries = append(entries, &domain.LedgerEntry{
			ID: uuid.New(), MemberID: memberID, Type: domain.TransactionTypeReferral,
			Description: "Referral Bounty", Amount: decimal.NewFromInt(int64(i + 1)), Date: time.Now(),
		})
	}
	f := newFixture(t, stubLedger{entries: entries})

	first, err := f.client.ListTransactions(authed(), &aurorav1.ListTransactionsRequest{Tab: "EARNINGS", Page: 1})
	require.NoError(t, err)
	assert.Len(t, first.Transactions, 10)
	assert.Equal(t, int32(12), first.Total)
	assert.True(t, first.HasNext)

	second, err := f.client.ListTransactions(authed(), &aurorav1.ListTransactionsRequest{Tab: "EARNINGS", Page: 2})
	require.NoError(t, err)
	assert.Len(t, second.Transactions, 2)
	assert.False(t, second.HasNext)

	_, err = f.client.ListTransactions(authed(), &aurorav1.ListTransactionsRequest{Tab: "BOGUS"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	bounties, err := f.client.ListBounties(authed(), &aurorav1.ListBountiesRequest{Level: "ALLY"})
	require.NoError(t, err)
	require.Len(t, bounties.Bounties, 1)
	assert.Equal(t, "25.00", bounties.Bounties[0].TotalBountyEarnings)

	_, err = f.client.ListBounties(authed(), &aurorav1.ListBountiesRequest{Level: "ENEMY"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestServer_Refresh(t *testing.T) {
	f := newFixture(t, stubLedger{})

	_, err := f.client.ClaimPackage(authed(), &aurorav1.ClaimPackageRequest{PositionId: f.matured.ID.String()})
	require.NoError(t, err)

	// earnings follow the list source; a locally claimed id stays out of the set
	resp, err := f.client.Refresh(authed(), &aurorav1.RefreshRequest{})
	require.NoError(t, err)
	assert.Equal(t, "500.00", resp.Earnings.PackageEarnings)
	assert.Equal(t, int32(1), resp.PackageCount)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		err  error
		code codes.Code
	}{
		{domain.ErrValidation, codes.InvalidArgument},
		{domain.ErrUnauthorized, codes.Unauthenticated},
		{domain.ErrNotFound, codes.NotFound},
		{&claim.Error{Kind: claim.KindConflict, Err: domain.ErrClaimConflict}, codes.AlreadyExists},
		{domain.ErrRequestPending, codes.AlreadyExists},
		{domain.ErrNotReady, codes.FailedPrecondition},
		{domain.ErrInsufficientEarnings, codes.FailedPrecondition},
		{domain.ErrClaimRejected, codes.PermissionDenied},
		{domain.ErrRequestRejected, codes.PermissionDenied},
		{&claim.Error{Kind: claim.KindNetwork, Err: domain.ErrNetworkFailure}, codes.Unavailable},
		{errors.New("boom"), codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.code, status.Code(mapError(tt.err)))
		})
	}
	assert.NoError(t, mapError(nil))
}

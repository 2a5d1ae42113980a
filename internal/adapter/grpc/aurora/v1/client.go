package aurorav1

import (
	"context"

	"google.golang.org/grpc"
)

// DashboardServiceClient is the client API for DashboardService
type DashboardServiceClient interface {
	GetEarnings(ctx context.Context, in *GetEarningsRequest, opts ...grpc.CallOption) (*GetEarningsResponse, error)
	ListPackages(ctx context.Context, in *ListPackagesRequest, opts ...grpc.CallOption) (*ListPackagesResponse, error)
	ClaimPackage(ctx context.Context, in *ClaimPackageRequest, opts ...grpc.CallOption) (*ClaimPackageResponse, error)
	RequestWithdrawal(ctx context.Context, in *RequestWithdrawalRequest, opts ...grpc.CallOption) (*RequestWithdrawalResponse, error)
	RequestDeposit(ctx context.Context, in *RequestDepositRequest, opts ...grpc.CallOption) (*RequestDepositResponse, error)
	ListTransactions(ctx context.Context, in *ListTransactionsRequest, opts ...grpc.CallOption) (*ListTransactionsResponse, error)
	ListBounties(ctx context.Context, in *ListBountiesRequest, opts ...grpc.CallOption) (*ListBountiesResponse, error)
	Refresh(ctx context.Context, in *RefreshRequest, opts ...grpc.CallOption) (*RefreshResponse, error)
}

type dashboardServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewDashboardServiceClient creates a client that sends every call with the JSON codec
func NewDashboardServiceClient(cc grpc.ClientConnInterface) DashboardServiceClient {
	return &dashboardServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *dashboardServiceClient) GetEarnings(ctx context.Context, in *GetEarningsRequest, opts ...grpc.CallOption) (*GetEarningsResponse, error) {
	return invoke[GetEarningsResponse](ctx, c.cc, "GetEarnings", in, opts)
}

func (c *dashboardServiceClient) ListPackages(ctx context.Context, in *ListPackagesRequest, opts ...grpc.CallOption) (*ListPackagesResponse, error) {
	return invoke[ListPackagesResponse](ctx, c.cc, "ListPackages", in, opts)
}

func (c *dashboardServiceClient) ClaimPackage(ctx context.Context, in *ClaimPackageRequest, opts ...grpc.CallOption) (*ClaimPackageResponse, error) {
	return invoke[ClaimPackageResponse](ctx, c.cc, "ClaimPackage", in, opts)
}

func (c *dashboardServiceClient) RequestWithdrawal(ctx context.Context, in *RequestWithdrawalRequest, opts ...grpc.CallOption) (*RequestWithdrawalResponse, error) {
	return invoke[RequestWithdrawalResponse](ctx, c.cc, "RequestWithdrawal", in, opts)
}

func (c *dashboardServiceClient) RequestDeposit(ctx context.Context, in *RequestDepositRequest, opts ...grpc.CallOption) (*RequestDepositResponse, error) {
	return invoke[RequestDepositResponse](ctx, c.cc, "RequestDeposit", in, opts)
}

func (c *dashboardServiceClient) ListTransactions(ctx context.Context, in *ListTransactionsRequest, opts ...grpc.CallOption) (*ListTransactionsResponse, error) {
	return invoke[ListTransactionsResponse](ctx, c.cc, "ListTransactions", in, opts)
}

func (c *dashboardServiceClient) ListBounties(ctx context.Context, in *ListBountiesRequest, opts ...grpc.CallOption) (*ListBountiesResponse, error) {
	return invoke[ListBountiesResponse](ctx, c.cc, "ListBounties", in, opts)
}

func (c *dashboardServiceClient) Refresh(ctx context.Context, in *RefreshRequest, opts ...grpc.CallOption) (*RefreshResponse, error) {
	return invoke[RefreshResponse](ctx, c.cc, "Refresh", in, opts)
}

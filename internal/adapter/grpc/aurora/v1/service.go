package aurorav1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "aurora.v1.DashboardService"

// DashboardServiceServer is the server API for DashboardService
type DashboardServiceServer interface {
	GetEarnings(context.Context, *GetEarningsRequest) (*GetEarningsResponse, error)
	ListPackages(context.Context, *ListPackagesRequest) (*ListPackagesResponse, error)
	ClaimPackage(context.Context, *ClaimPackageRequest) (*ClaimPackageResponse, error)
	RequestWithdrawal(context.Context, *RequestWithdrawalRequest) (*RequestWithdrawalResponse, error)
	RequestDeposit(context.Context, *RequestDepositRequest) (*RequestDepositResponse, error)
	ListTransactions(context.Context, *ListTransactionsRequest) (*ListTransactionsResponse, error)
	ListBounties(context.Context, *ListBountiesRequest) (*ListBountiesResponse, error)
	Refresh(context.Context, *RefreshRequest) (*RefreshResponse, error)
}

// UnimplementedDashboardServiceServer can be embedded to have forward compatible implementations
type UnimplementedDashboardServiceServer struct{}

func (UnimplementedDashboardServiceServer) GetEarnings(context.Context, *GetEarningsRequest) (*GetEarningsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetEarnings not implemented")
}
func (UnimplementedDashboardServiceServer) ListPackages(context.Context, *ListPackagesRequest) (*ListPackagesResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListPackages not implemented")
}
func (UnimplementedDashboardServiceServer) ClaimPackage(context.Context, *ClaimPackageRequest) (*ClaimPackageResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ClaimPackage not implemented")
}
func (UnimplementedDashboardServiceServer) RequestWithdrawal(context.Context, *RequestWithdrawalRequest) (*RequestWithdrawalResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RequestWithdrawal not implemented")
}
func (UnimplementedDashboardServiceServer) RequestDeposit(context.Context, *RequestDepositRequest) (*RequestDepositResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RequestDeposit not implemented")
}
func (UnimplementedDashboardServiceServer) ListTransactions(context.Context, *ListTransactionsRequest) (*ListTransactionsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListTransactions not implemented")
}
func (UnimplementedDashboardServiceServer) ListBounties(context.Context, *ListBountiesRequest) (*ListBountiesResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListBounties not implemented")
}
func (UnimplementedDashboardServiceServer) Refresh(context.Context, *RefreshRequest) (*RefreshResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Refresh not implemented")
}

// RegisterDashboardServiceServer registers srv on s
func RegisterDashboardServiceServer(s grpc.ServiceRegistrar, srv DashboardServiceServer) {
	s.RegisterService(&DashboardService_ServiceDesc, srv)
}

func unary[Req, Resp any](method string, call func(DashboardServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(DashboardServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(DashboardServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// DashboardService_ServiceDesc is the grpc.ServiceDesc for DashboardService
var DashboardService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DashboardServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetEarnings", DashboardServiceServer.GetEarnings),
		unary("ListPackages", DashboardServiceServer.ListPackages),
		unary("ClaimPackage", DashboardServiceServer.ClaimPackage),
		unary("RequestWithdrawal", DashboardServiceServer.RequestWithdrawal),
		unary("RequestDeposit", DashboardServiceServer.RequestDeposit),
		unary("ListTransactions", DashboardServiceServer.ListTransactions),
		unary("ListBounties", DashboardServiceServer.ListBounties),
		unary("Refresh", DashboardServiceServer.Refresh),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "aurora/v1/dashboard.proto",
}

package gameserver

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "overstack.sim.v1.SimulationService"

// RPC method names.
const (
	MethodCreateRun       = "CreateRun"
	MethodDestroyRun      = "DestroyRun"
	MethodResetRun        = "ResetRun"
	MethodStep            = "Step"
	MethodSnapshot        = "Snapshot"
	MethodAutoplay        = "Autoplay"
	MethodGetArchivedRun  = "GetArchivedRun"
	MethodListArchivedRun = "ListArchivedRuns"
)

// SimulationServiceServer is the server API of SimulationService. Every
// request and response is a google.protobuf.Struct.
type SimulationServiceServer interface {
	CreateRun(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DestroyRun(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ResetRun(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Step(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Snapshot(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Autoplay(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetArchivedRun(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListArchivedRuns(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(SimulationServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call unaryCall) grpc.MethodDesc {
	full := FullMethod(name)
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(SimulationServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: full}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(SimulationServiceServer), ctx, req.(*structpb.Struct))
			})
		},
	}
}

// SimulationServiceDesc describes SimulationService for grpc.Server.RegisterService.
var SimulationServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SimulationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodCreateRun, SimulationServiceServer.CreateRun),
		unary(MethodDestroyRun, SimulationServiceServer.DestroyRun),
		unary(MethodResetRun, SimulationServiceServer.ResetRun),
		unary(MethodStep, SimulationServiceServer.Step),
		unary(MethodSnapshot, SimulationServiceServer.Snapshot),
		unary(MethodAutoplay, SimulationServiceServer.Autoplay),
		unary(MethodGetArchivedRun, SimulationServiceServer.GetArchivedRun),
		unary(MethodListArchivedRun, SimulationServiceServer.ListArchivedRuns),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "overstack/sim/v1/simulation.proto",
}

// RegisterSimulationServiceServer registers srv on s.
func RegisterSimulationServiceServer(s grpc.ServiceRegistrar, srv SimulationServiceServer) {
	s.RegisterService(&SimulationServiceDesc, srv)
}

// FullMethod returns the "/service/method" path for method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// SimulationClient calls SimulationService methods with plain maps.
type SimulationClient struct {
	cc grpc.ClientConnInterface
}

// NewSimulationClient wraps cc.
func NewSimulationClient(cc grpc.ClientConnInterface) *SimulationClient {
	return &SimulationClient{cc: cc}
}

// Call invokes method with req converted to a Struct.
//
// Postcondition: Returns the response Struct or the RPC's status error.
func (c *SimulationClient) Call(ctx context.Context, method string, req map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, fmt.Errorf("encoding %s request: %w", method, err)
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

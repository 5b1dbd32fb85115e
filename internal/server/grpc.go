package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/health-reports/internal/common"
)

const ReportServiceName = "healthreports.v1.ReportService"

// ReportServer is the gRPC surface. Requests and responses are
// google.protobuf.Struct so no generated stubs are needed.
type ReportServer interface {
	Analyze(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetLatest(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetReport(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportReport(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListModels(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ReportServiceDesc registers a ReportServer on a grpc.Server.
var ReportServiceDesc = grpc.ServiceDesc{
	ServiceName: ReportServiceName,
	HandlerType: (*ReportServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("Analyze", ReportServer.Analyze),
		unaryMethod("GetLatest", ReportServer.GetLatest),
		unaryMethod("GetReport", ReportServer.GetReport),
		unaryMethod("ExportReport", ReportServer.ExportReport),
		unaryMethod("ListModels", ReportServer.ListModels),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "healthreports/v1/reports.proto",
}

func unaryMethod(name string, call func(ReportServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ReportServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ReportServiceName + "/" + name}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ReportServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// GRPCServer adapts ReportService to ReportServer.
type GRPCServer struct {
	svc    *ReportService
	logger *slog.Logger
}

var _ ReportServer = (*GRPCServer)(nil)

func NewGRPCServer(svc *ReportService, logger *slog.Logger) *GRPCServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &GRPCServer{svc: svc, logger: logger}
}

// NewServer builds a grpc.Server carrying the report service, the health
// service (SERVING) and reflection.
func NewServer(svc *ReportService, maxRecvBytes int, logger *slog.Logger) *grpc.Server {
	opts := []grpc.ServerOption{grpc.ChainUnaryInterceptor(requestIDInterceptor(logger))}
	if maxRecvBytes > 0 {
		// base64 inflates uploads by a third
		opts = append(opts, grpc.MaxRecvMsgSize(maxRecvBytes*4/3+1024))
	}
	gs := grpc.NewServer(opts...)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ReportServiceName, healthpb.HealthCheckResponse_SERVING)
	// Reflection for grpcurl
	reflection.Register(gs)

	gs.RegisterService(&ReportServiceDesc, NewGRPCServer(svc, logger))
	return gs
}

func requestIDInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx, rid := common.EnsureRequestID(ctx)
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Info("grpc.request",
			"req_id", rid,
			"method", info.FullMethod,
			"code", common.ErrorCode(err),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return resp, err
	}
}

func (s *GRPCServer) Analyze(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	filename := stringField(in, "filename")
	if filename == "" {
		return nil, common.InvalidArgumentError("filename is required")
	}
	data, err := base64.StdEncoding.DecodeString(stringField(in, "content_base64"))
	if err != nil {
		return nil, common.InvalidArgumentErrorf("content_base64: %v", err)
	}

	r, err := s.svc.Analyze(ctx, UploadRequest{
		Filename:   filename,
		MediaType:  stringField(in, "media_type"),
		Data:       data,
		Credential: stringField(in, "credential"),
	})
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return toStruct(r)
}

func (s *GRPCServer) GetLatest(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	r, err := s.svc.Latest(ctx)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return toStruct(r)
}

func (s *GRPCServer) GetReport(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	r, err := s.svc.Get(ctx, stringField(in, "id"))
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return toStruct(r)
}

func (s *GRPCServer) ExportReport(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id := stringField(in, "id")
	b, err := s.svc.Export(ctx, id)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	name := "health-report.xlsx"
	if id != "" {
		name = fmt.Sprintf("health-report-%s.xlsx", id)
	}
	return structpb.NewStruct(map[string]any{
		"filename":       name,
		"content_base64": base64.StdEncoding.EncodeToString(b),
	})
}

func (s *GRPCServer) ListModels(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	models := s.svc.ListModels(ctx, stringField(in, "credential"))
	list := make([]any, len(models))
	for i, m := range models {
		list[i] = m
	}
	return structpb.NewStruct(map[string]any{"models": list})
}

func stringField(in *structpb.Struct, key string) string {
	if in == nil {
		return ""
	}
	return in.GetFields()[key].GetStringValue()
}

// toStruct converts any JSON-serializable value through its JSON form.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	return out, nil
}

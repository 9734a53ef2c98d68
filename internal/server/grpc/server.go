// Package grpc serves the realtime notification stream.
package grpc

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/sku-codemong/codemong-Backend-02/internal/logging"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/realtime"
)

type GRPCServer struct {
	address  string
	hub      *realtime.Hub
	resolver ClaimsResolver
	logger   logging.Logger
	// enforceExpiry ends a stream when the token that opened it expires.
	enforceExpiry bool
	now           func() time.Time
}

func NewGRPCServer(a string, l logging.Logger, hub *realtime.Hub, resolver ClaimsResolver, enforceExpiry bool) *GRPCServer {
	return &GRPCServer{
		address:       a,
		logger:        l.With("module", "grpc_server"),
		hub:           hub,
		resolver:      resolver,
		enforceExpiry: enforceExpiry,
		now:           time.Now,
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on listen until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := grpc.NewServer(grpc.ChainStreamInterceptor(s.accessTokenStreamInterceptor))

	RegisterNotificationsServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.Stop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil && err != grpc.ErrServerStopped {
		return err
	}

	return nil
}

// Subscribe joins the caller's broadcast group and forwards its events
// until the client leaves or, with expiry enforcement, the token expires.
func (s *GRPCServer) Subscribe(_ *emptypb.Empty, stream SubscribeStream) error {
	ctx := stream.Context()

	uid, ok := UserIDFromContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "unauthenticated")
	}

	var expired <-chan time.Time
	if exp, ok := expiresAtFromContext(ctx); ok && s.enforceExpiry && !exp.IsZero() {
		timer := time.NewTimer(exp.Sub(s.now()))
		defer timer.Stop()
		expired = timer.C
	}

	sub := s.hub.Subscribe(uid)
	defer sub.Close()

	s.logger.Info(ctx, "realtime stream opened", "user_id", uid)
	defer s.logger.Info(ctx, "realtime stream closed", "user_id", uid)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-expired:
			return status.Error(codes.Unauthenticated, "token expired")
		case ev, ok := <-sub.Events():
			if !ok {
				return nil
			}
			msg, err := eventToStruct(ev)
			if err != nil {
				s.logger.Error(ctx, "realtime event not encodable", "type", ev.Type, "error", err)
				continue
			}
			if err := stream.Send(msg); err != nil {
				return err
			}
		}
	}
}

func eventToStruct(ev realtime.Event) (*structpb.Struct, error) {
	payload := ev.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	return structpb.NewStruct(map[string]any{
		"type":    ev.Type,
		"payload": payload,
	})
}

package client

import (
	"context"
	"errors"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/sku-codemong/codemong-Backend-02/internal/client/models"
	"github.com/sku-codemong/codemong-Backend-02/internal/common"
	grpcsrv "github.com/sku-codemong/codemong-Backend-02/internal/server/grpc"
)

// RealtimeClient subscribes to the server's notification stream.
type RealtimeClient struct {
	conn   *grpc.ClientConn
	client *grpcsrv.NotificationsClient
}

func NewRealtimeClient(endpoint string, opts ...grpc.DialOption) (*RealtimeClient, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(endpoint, opts...)
	if err != nil {
		return nil, err
	}
	return &RealtimeClient{conn: conn, client: grpcsrv.NewNotificationsClient(conn)}, nil
}

func (c *RealtimeClient) Close() error {
	return c.conn.Close()
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)
	return metadata.NewOutgoingContext(ctx, md)
}

// Subscribe blocks, calling fn for each event, until ctx is done or the
// server ends the stream. A normal end of stream returns nil.
func (c *RealtimeClient) Subscribe(ctx context.Context, accessToken string, fn func(models.Event)) error {
	if accessToken == "" {
		return ErrNotLoggedIn
	}

	stream, err := c.client.Subscribe(withAccessToken(ctx, accessToken))
	if err != nil {
		return mapError(err)
	}

	for {
		msg, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return mapError(err)
		}

		ev := models.Event{}
		m := msg.AsMap()
		ev.Type, _ = m["type"].(string)
		ev.Payload, _ = m["payload"].(map[string]any)
		fn(ev)
	}
}

func mapError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.Unauthenticated:
		return errors.Join(ErrUnauthorized, err)
	case codes.Unavailable:
		return errors.Join(ErrUnavailable, err)
	case codes.Canceled:
		return context.Canceled
	}
	return err
}

package client

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// GRPCHealthClient queries the server's standard gRPC health service.
type GRPCHealthClient struct {
	conn   *grpc.ClientConn
	client healthpb.HealthClient
}

// NewGRPCHealthClient connects to the given gRPC address.
func NewGRPCHealthClient(addr string) (*GRPCHealthClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial: %w", err)
	}
	return &GRPCHealthClient{
		conn:   conn,
		client: healthpb.NewHealthClient(conn),
	}, nil
}

func (c *GRPCHealthClient) Close() error {
	return c.conn.Close()
}

// Check returns the serving status of service ("" for the whole server),
// e.g. "SERVING".
func (c *GRPCHealthClient) Check(ctx context.Context, service string) (string, error) {
	resp, err := c.client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return "", fmt.Errorf("grpc health check: %w", err)
	}
	return resp.GetStatus().String(), nil
}

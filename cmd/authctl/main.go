// authctl runs the revocation ledger maintenance operations against a
// running homestock server:
//
//	authctl [flags] cleanup
//	authctl [flags] stats
//	authctl [flags] revoke <token>
//
// The operator's own access token is read from --token or HOMESTOCK_TOKEN.
package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/dtroode/homestock-server/internal/api/grpc/proto"
)

const tokenEnv = "HOMESTOCK_TOKEN"

type maintenanceClient interface {
	Cleanup(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.Int64Value, error)
	Stats(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	Revoke(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
}

var errUsage = errors.New("usage: authctl [flags] cleanup | stats | revoke <token>")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	var (
		addr    string
		token   string
		useTLS  bool
		caFile  string
		timeout time.Duration
	)

	flagSet := pflag.NewFlagSet("authctl", pflag.ContinueOnError)
	flagSet.StringVarP(&addr, "addr", "a", "localhost:50051", "maintenance gRPC address")
	flagSet.StringVarP(&token, "token", "t", "", "operator access token (default $"+tokenEnv+")")
	flagSet.BoolVar(&useTLS, "tls", false, "connect with TLS")
	flagSet.StringVar(&caFile, "ca-file", "", "PEM root certificate for --tls (default system roots)")
	flagSet.DurationVar(&timeout, "timeout", 10*time.Second, "per-command deadline")

	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() == 0 {
		return errUsage
	}
	if token == "" {
		token = os.Getenv(tokenEnv)
	}
	if token == "" {
		return fmt.Errorf("an access token is required: pass --token or set %s", tokenEnv)
	}

	creds := insecure.NewCredentials()
	if useTLS {
		if caFile != "" {
			c, err := credentials.NewClientTLSFromFile(caFile, "")
			if err != nil {
				return fmt.Errorf("failed to load CA file: %w", err)
			}
			creds = c
		} else {
			creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
		}
	}

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(creds))
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)

	return execute(ctx, proto.NewMaintenanceClient(conn), flagSet.Args(), out)
}

func execute(ctx context.Context, client maintenanceClient, args []string, out io.Writer) error {
	switch args[0] {
	case "cleanup":
		if len(args) != 1 {
			return errUsage
		}
		removed, err := client.Cleanup(ctx, &emptypb.Empty{})
		if err != nil {
			return fmt.Errorf("cleanup failed: %w", err)
		}
		fmt.Fprintf(out, "removed %d expired entries\n", removed.GetValue())
	case "stats":
		if len(args) != 1 {
			return errUsage
		}
		stats, err := client.Stats(ctx, &emptypb.Empty{})
		if err != nil {
			return fmt.Errorf("stats failed: %w", err)
		}
		fields := stats.GetFields()
		fmt.Fprintf(out, "total=%d active=%d expired=%d\n",
			int64(fields["total"].GetNumberValue()),
			int64(fields["active"].GetNumberValue()),
			int64(fields["expired"].GetNumberValue()))
	case "revoke":
		if len(args) != 2 || args[1] == "" {
			return errUsage
		}
		if _, err := client.Revoke(ctx, wrapperspb.String(args[1])); err != nil {
			return fmt.Errorf("revoke failed: %w", err)
		}
		fmt.Fprintln(out, "token revoked")
	default:
		return fmt.Errorf("unknown command %q: %w", args[0], errUsage)
	}
	return nil
}

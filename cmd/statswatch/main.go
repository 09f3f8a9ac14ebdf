// statswatch 订阅结算服务的统计流并逐条输出，用于运维观察
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	pb "github.com/wyfcoding/storefront/go-api/checkout/v1"
	"github.com/wyfcoding/storefront/internal/checkout/client"
	"github.com/wyfcoding/storefront/pkg/grpcclient"
	"github.com/wyfcoding/storefront/pkg/logger"
)

var (
	target     = flag.String("target", "localhost:50052", "checkout service address")
	format     = flag.String("format", "text", "log format: text or json")
	maxBackoff = flag.Duration("max-backoff", 5*time.Second, "max delay between resubscriptions")
)

func main() {
	flag.Parse()

	if err := logger.Init(logger.Config{Level: "info", Format: *format, Output: "stdout", Service: "statswatch"}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := grpcclient.NewClient(grpcclient.ClientConfig{Target: *target, ConnTimeout: 5, KeepaliveInterval: 30})
	if err != nil {
		logger.Fatal(ctx, "Failed to dial checkout service", "target", *target, "error", err)
	}
	defer conn.Close()

	watcher := client.NewStatsWatcher(pb.NewCheckoutServiceClient(conn), *maxBackoff)
	logger.Info(ctx, "Watching checkout stats", "target", *target)
	_ = watcher.Watch(ctx, func(ctx context.Context, s *pb.CheckoutStats) {
		logger.Info(ctx, "Checkout stats",
			"total_products_purchased", s.TotalProductsPurchased,
			"total_money_spent", s.TotalMoneySpent,
		)
	})
}

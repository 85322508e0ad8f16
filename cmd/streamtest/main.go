// streamtest connects to the venue's public WebSocket and prints classified
// ticker events to the console. No credentials are required.
//
// Usage: go run ./cmd/streamtest --tickers BTCUSDT,ETHUSDT
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/walletdesk/bitget-relay/internal/auth"
	"github.com/walletdesk/bitget-relay/internal/config"
	"github.com/walletdesk/bitget-relay/internal/connection"
	"github.com/walletdesk/bitget-relay/internal/dispatch"
	"github.com/walletdesk/bitget-relay/internal/model"
	"github.com/walletdesk/bitget-relay/internal/subs"
)

func main() {
	tickers := flag.String("tickers", "BTCUSDT", "comma-separated instrument IDs")
	publicURL := flag.String("url", config.DefaultPublicWSURL, "public WebSocket endpoint")
	verbose := flag.Bool("verbose", false, "print full event JSON")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	var specs []subs.Spec
	for _, id := range strings.Split(*tickers, ",") {
		if id = strings.TrimSpace(id); id != "" {
			specs = append(specs, subs.TickerSpec(id))
		}
	}
	if len(specs) == 0 {
		logger.Error("no tickers given")
		os.Exit(1)
	}

	dispatcher := dispatch.New(nil, logger)

	sink := make(chan model.Event, 256)
	dispatcher.Register("streamtest", sink)

	mgrCfg := connection.DefaultManagerConfig()
	mgrCfg.PublicURL = *publicURL
	manager := connection.NewManager(mgrCfg, dispatcher, logger)
	defer manager.CloseAll()

	if err := manager.Start("streamtest", auth.Credentials{}, specs); err != nil {
		logger.Error("failed to start session", "error", err)
		os.Exit(1)
	}

	logger.Info("streaming", "tickers", *tickers, "url", *publicURL)

	count := 0
	for {
		select {
		case <-ctx.Done():
			stats := dispatcher.Stats()
			logger.Info("done",
				"events", count,
				"emitted", stats.Emitted,
				"dropped", stats.Dropped,
			)
			return

		case ev := <-sink:
			count++
			tick, ok := ev.(model.Ticker)
			if !ok {
				continue
			}
			if *verbose {
				out, _ := json.Marshal(tick)
				fmt.Println(string(out))
				continue
			}
			fmt.Printf("%s  last=%s bid=%s ask=%s\n",
				tick.Quote.InstID,
				tick.Quote.LastPr,
				tick.Quote.BidPr,
				tick.Quote.AskPr,
			)
		}
	}
}

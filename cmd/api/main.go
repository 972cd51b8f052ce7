package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rentledger.org/internal/audit"
	"rentledger.org/internal/config"
	"rentledger.org/internal/content"
	"rentledger.org/internal/httpapi"
	"rentledger.org/internal/market"
	"rentledger.org/internal/obs"
	"rentledger.org/internal/oracle"
	"rentledger.org/internal/store/pg"
	"rentledger.org/internal/stream"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	cfg, err := config.Load(os.Getenv("RENTLEDGER_CONFIG"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Postgres archive is optional: without a DSN the marketplace runs
	// purely in memory.
	var archive *pg.Archive
	if cfg.PGDSN != "" {
		archive, err = pg.Open(cfg.PGDSN)
		if err != nil {
			log.Fatalf("open archive: %v", err)
		}
	}

	// Settlement rail. Payouts are recorded in the audit log; a real
	// deployment plugs a payment provider in here.
	bank := market.TransferorFunc(func(ctx context.Context, to string, amount int64) error {
		audit.LogEvent(ctx, "settlement.payout", map[string]any{
			"to":     to,
			"amount": amount,
		})
		return nil
	})

	svc := market.NewInMemory(market.WithTransferor(bank))
	events := stream.New()

	apiOpts := []httpapi.APIOption{
		httpapi.WithRateLimit(cfg.RateBurst, cfg.RatePerSec),
	}
	if cfg.OracleFeedURL != "" {
		feed := oracle.NewHTTPFeed(cfg.OracleFeedURL)
		apiOpts = append(apiOpts, httpapi.WithConverter(oracle.NewConverter(feed, cfg.OracleMaxAge)))
	}
	if cfg.ContentStoreURL != "" {
		apiOpts = append(apiOpts, httpapi.WithContentStore(content.NewClient(cfg.ContentStoreURL)))
	}

	var probe httpapi.ReadyProbe
	if archive != nil {
		probe.Archive = archive
		apiOpts = append(apiOpts, httpapi.WithEventArchive(archive))
	}
	api := httpapi.New(probe, version, svc, events, apiOpts...)

	// Archive subscriber: mirrors the event stream into Postgres, and
	// follows deposit/rent events with the full escrow payment record.
	archiveCtx, stopArchiver := context.WithCancel(context.Background())
	defer stopArchiver()
	if archive != nil {
		go func() {
			for ev := range events.Subscribe(archiveCtx) {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				if err := archive.RecordEvent(ctx, ev); err != nil {
					obs.LogComponent("error", "archiver", "record event failed", map[string]any{
						"event": string(ev.Type),
						"error": err.Error(),
					})
				}
				if ev.Type == stream.EventDepositPaid || ev.Type == stream.EventRentPaid {
					if p, err := svc.GetPayment(ctx, ev.PaymentID); err != nil {
						obs.LogComponent("error", "archiver", "payment lookup failed", map[string]any{
							"payment_id": ev.PaymentID,
							"error":      err.Error(),
						})
					} else if err := archive.RecordPayment(ctx, p); err != nil {
						obs.LogComponent("error", "archiver", "record payment failed", map[string]any{
							"payment_id": p.ID,
							"error":      err.Error(),
						})
					}
				}
				cancel()
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting rentledger-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	stopArchiver()
	if archive != nil {
		_ = archive.Close()
	}
	log.Println("Stopped")
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	log "github.com/sirupsen/logrus"

	"github.com/0xb10c/mempoolnote/src/bot"
	"github.com/0xb10c/mempoolnote/src/config"
	"github.com/0xb10c/mempoolnote/src/lnbits"
	"github.com/0xb10c/mempoolnote/src/mempoolclient"
	"github.com/0xb10c/mempoolnote/src/storage"
	"github.com/0xb10c/mempoolnote/src/watermark"
)

func main() {
	cfg, err := config.Load(config.NewFlagSet("paymentcheck"), os.Args[1:])
	if err == pflag.ErrHelp {
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("Invalid configuration: %s", err)
	}
	cfg.SetupLogging()

	if err := cfg.RequirePaymentFeed(); err != nil {
		log.Fatal(err)
	}
	if err := cfg.RequireMempool(); err != nil {
		log.Fatal(err)
	}

	feed, err := lnbits.NewLNbitsClient(cfg.LNbitsURL, cfg.LNbitsAPIKey, cfg.PaymentLimit, cfg.Timeout)
	if err != nil {
		log.Fatalf("Could not setup LNbits client: %s", err)
	}

	p, err := cfg.Publisher()
	if err != nil {
		log.Fatalf("Could not setup publisher: %s", err)
	}
	opts := []bot.Option{bot.WithPublisher(p)}

	var store watermark.Store
	if cfg.DatabasePath != "" {
		st, err := storage.NewStorage(cfg.DatabasePath)
		if err != nil {
			log.Fatal(err)
		}
		defer st.Close()
		store = st
		opts = append(opts, bot.WithArchive(st))
	} else {
		fstore, err := watermark.NewFileStore(cfg.WatermarkFile)
		if err != nil {
			log.Fatal(err)
		}
		store = fstore
	}
	opts = append(opts, bot.WithTracker(watermark.NewTracker(feed, store, cfg.TriggerAmount)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := mempoolclient.NewMempoolClient(cfg.FeeVariant, cfg.Timeout)
	b := bot.NewBot(client, cfg.Generator(), cfg.ReferenceEndpoint, cfg.SubjectEndpoint, opts...)

	res, err := b.Check(ctx)
	if err != nil {
		log.Errorf("Error during check: %s", err)
		stop()
		os.Exit(1)
	}
	if res.Note != "" {
		fmt.Print(res.Note)
	}
}

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
	"github.com/0xb10c/mempoolnote/src/mempoolclient"
	"github.com/0xb10c/mempoolnote/src/storage"
)

func main() {
	fs := config.NewFlagSet("mempoolnote")
	publish := fs.Bool("publish", false, "publish the note instead of only printing it")

	cfg, err := config.Load(fs, os.Args[1:])
	if err == pflag.ErrHelp {
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("Invalid configuration: %s", err)
	}
	cfg.SetupLogging()

	if err := cfg.RequireMempool(); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []bot.Option{}
	if *publish {
		p, err := cfg.Publisher()
		if err != nil {
			log.Fatalf("Could not setup publisher: %s", err)
		}
		opts = append(opts, bot.WithPublisher(p))

		if cfg.DatabasePath != "" {
			st, err := storage.NewStorage(cfg.DatabasePath)
			if err != nil {
				log.Fatal(err)
			}
			defer st.Close()
			opts = append(opts, bot.WithArchive(st))
		}
	}

	client := mempoolclient.NewMempoolClient(cfg.FeeVariant, cfg.Timeout)
	b := bot.NewBot(client, cfg.Generator(), cfg.ReferenceEndpoint, cfg.SubjectEndpoint, opts...)

	if err := run(ctx, b, *publish); err != nil {
		log.Errorf("Could not create note: %s", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, b *bot.Bot, publish bool) error {
	note, err := b.Note(ctx)
	if err != nil {
		return err
	}
	fmt.Print(note)

	if publish {
		if err := b.Publish(ctx, note, ""); err != nil {
			return err
		}
		log.Info("published note")
	}
	return nil
}

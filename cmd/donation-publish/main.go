// Command donation-publish announces donations from a JSON file as
// donation.recorded events, for replaying payments into the worker.
//
//	donation-publish -file donations.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"donorboard/internal/amqp"
	"donorboard/internal/cli"
	"donorboard/internal/log"
	"donorboard/internal/source"
)

func main() {
	file := flag.String("file", "", "JSON array of donations to publish")
	dryRun := flag.Bool("dry-run", false, "validate the file without publishing")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentAMQP)

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: donation-publish -file donations.json [-dry-run]")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	raw, err := os.ReadFile(*file)
	if err != nil {
		logger.Error("Failed to read donations file", log.FieldError, err.Error(), "path", *file)
		os.Exit(1)
	}
	var payloads []source.DonationPayload
	if err := json.Unmarshal(raw, &payloads); err != nil {
		logger.Error("Donations file is not a JSON array of donations", log.FieldError, err.Error(), "path", *file)
		os.Exit(1)
	}
	donations, err := source.DecodeDonations(log.WithLogger(ctx, logger), payloads)
	if err != nil {
		logger.Error("Invalid donation", log.FieldError, err.Error())
		os.Exit(1)
	}
	if *dryRun {
		logger.Info("Donations file is valid", log.FieldCount, len(donations))
		return
	}

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required to publish")
		os.Exit(1)
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer client.Close()

	published := 0
	for _, d := range donations {
		if err := client.PublishDonationRecorded(ctx, amqp.NewDonationRecordedMessage(d)); err != nil {
			logger.Error("Publish failed", log.FieldError, err.Error(), log.FieldDonationID, d.ID, "published", published)
			os.Exit(1)
		}
		published++
	}
	logger.Info("Donations published", log.FieldCount, published)
}

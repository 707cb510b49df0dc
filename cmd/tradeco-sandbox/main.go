package main

import (
	"errors"
	"flag"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/tradeco/tradeco_sdk_go/internal/config"
	"github.com/tradeco/tradeco_sdk_go/internal/devseed"
	"github.com/tradeco/tradeco_sdk_go/internal/logging"
	"github.com/tradeco/tradeco_sdk_go/internal/sandbox"
)

func main() {
	addr := flag.String("addr", ":5000", "listen address")
	seedPath := flag.String("seed", "", "path to a YAML or JSON seed file (defaults to TRADECO_SANDBOX_SEED)")
	latency := flag.Duration("latency", 0, "artificial latency to inject per request")
	fail := flag.String("fail", "", "failure injection (rate=<float>,code=<httpStatus>)")
	flag.Parse()

	if err := run(*addr, *seedPath, *latency, *fail); err != nil {
		log.Fatal().Err(err).Msg("tradeco-sandbox")
	}
}

func run(addr, seedPath string, latency time.Duration, fail string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.Setup(cfg.LogLevel)
	logger := logging.Component("sandbox")

	faults, err := sandbox.ParseFaults(fail)
	if err != nil {
		return fmt.Errorf("parse fail flag: %w", err)
	}
	faults.Latency = latency

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := sandbox.New(
		sandbox.WithSecret(cfg.Sandbox.Secret),
		sandbox.WithLogger(logger),
		sandbox.WithRegistry(reg),
		sandbox.WithFaults(faults),
	)

	if seedPath == "" {
		seedPath = cfg.Sandbox.SeedFile
	}
	if seedPath != "" {
		seed, err := devseed.Load(seedPath)
		if err != nil {
			return fmt.Errorf("load seed: %w", err)
		}
		if err := srv.Seed(seed); err != nil {
			return fmt.Errorf("apply seed: %w", err)
		}
		logger.Info().Int("users", len(seed.Users)).Int("products", len(seed.Products)).Msg("seed applied")
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	host := addr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	logger.Info().Str("addr", addr).Msg("tradeco-sandbox listening")
	fmt.Println()
	fmt.Println("export TRADECO_RUNTIME_MODE=http")
	fmt.Printf("export TRADECO_API_URL=http://%s/api\n", host)
	fmt.Println()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

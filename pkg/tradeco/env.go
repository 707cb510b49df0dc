package tradeco

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tradeco/tradeco_sdk_go/internal/config"
	"github.com/tradeco/tradeco_sdk_go/internal/devseed"
	"github.com/tradeco/tradeco_sdk_go/internal/sandbox"
	"github.com/tradeco/tradeco_sdk_go/pkg/session"
)

// SandboxBaseURL is the API root used when requests are served in-process.
const SandboxBaseURL = "http://sandbox.local/api"

// NewFromEnv builds a Client from TRADECO_* environment variables (and any
// .env file) and returns the resolved mode ("http" or "sandbox").
//
// In sandbox mode requests never leave the process: they are handled by an
// in-memory backend, optionally seeded from TRADECO_SANDBOX_SEED.
func NewFromEnv(opts ...Option) (client *Client, mode string, err error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, "", fmt.Errorf("tradeco: %w", err)
	}
	return NewFromConfig(cfg, opts...)
}

// NewFromConfig is NewFromEnv with an already loaded configuration.
func NewFromConfig(cfg *config.Config, opts ...Option) (client *Client, mode string, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("tradeco: %w", err)
	}

	logger := log.Logger.With().Str("component", "tradeco").Logger()
	opts = append([]Option{WithLogger(logger)}, opts...)
	if cfg.API.Timeout > 0 {
		opts = append(opts, WithTimeout(cfg.API.Timeout))
	}

	store, err := newSessionStore(cfg.Session.File, logger)
	if err != nil {
		return nil, "", err
	}

	mode = cfg.ResolveMode()
	switch mode {
	case config.ModeHTTP:
		client, err = New(cfg.API.URL, store, opts...)
		if err != nil {
			return nil, "", fmt.Errorf("tradeco: init HTTP client: %w", err)
		}
		return client, mode, nil
	case config.ModeSandbox:
		srv, err := newSandbox(cfg.Sandbox)
		if err != nil {
			return nil, "", err
		}
		client, err = New(SandboxBaseURL, store, append(opts, WithHandler(srv))...)
		if err != nil {
			return nil, "", fmt.Errorf("tradeco: init sandbox client: %w", err)
		}
		return client, mode, nil
	default:
		return nil, "", fmt.Errorf("tradeco: unsupported runtime mode %q", mode)
	}
}

func newSessionStore(path string, logger zerolog.Logger) (*session.Store, error) {
	if path == "" {
		return session.New(nil, session.WithLogger(logger)), nil
	}
	fs, err := session.NewFileStorage(path)
	if err != nil {
		return nil, fmt.Errorf("tradeco: open session file: %w", err)
	}
	return session.New(fs, session.WithLogger(logger)), nil
}

func newSandbox(cfg config.SandboxConfig) (*sandbox.Server, error) {
	srv := sandbox.New(sandbox.WithSecret(cfg.Secret))
	if cfg.SeedFile == "" {
		return srv, nil
	}
	seed, err := devseed.Load(cfg.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("tradeco: load sandbox seed: %w", err)
	}
	if err := srv.Seed(seed); err != nil {
		return nil, fmt.Errorf("tradeco: apply sandbox seed: %w", err)
	}
	return srv, nil
}

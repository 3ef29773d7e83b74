package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/stevereal007-del/House-Bernard-sub000/internal/adapters/registry/static"
	"github.com/stevereal007-del/House-Bernard-sub000/internal/adapters/store/memory"
	tomlstore "github.com/stevereal007-del/House-Bernard-sub000/internal/adapters/store/toml"
	"github.com/stevereal007-del/House-Bernard-sub000/internal/application"
	"github.com/stevereal007-del/House-Bernard-sub000/internal/ports"
)

type app struct {
	manager     *application.SessionManager
	credentials *application.CredentialService
	canaries    *application.CanaryService
	logger      *zap.Logger
}

// wireApp assembles the core. Credential-service state (sessions, audit) is
// TOML-backed and survives restarts; continuity, canary and kill-switch state
// is memory-only and rebuilt as agents re-register.
func wireApp() (*app, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, fmt.Errorf("wire logger: %w", err)
	}

	registry, err := static.NewRegistry(viper.New())
	if err != nil {
		return nil, fmt.Errorf("wire compartment registry: %w", err)
	}

	sessions, err := tomlstore.NewRepository(viper.New())
	if err != nil {
		return nil, fmt.Errorf("wire session repository: %w", err)
	}

	audit, err := tomlstore.NewAuditLog(viper.New())
	if err != nil {
		return nil, fmt.Errorf("wire audit log: %w", err)
	}

	clock := ports.SystemClock{}

	credentials := application.NewCredentialService(registry, sessions, audit, clock, logger)
	continuity := application.NewContinuityService(registry, memory.NewHeartbeatStore(), memory.NewSecretStore(), clock, logger)
	canaries := application.NewCanaryService(memory.NewCanaryStore(), clock, logger)
	killswitch := application.NewKillSwitchService(memory.NewKillSwitchStore(), clock, logger)
	protocol := application.NewCompromiseService(memory.NewIncidentStore(), registry, credentials, clock, logger)

	manager := application.NewSessionManager(registry, credentials, continuity, canaries, killswitch, protocol, clock, logger)

	return &app{
		manager:     manager,
		credentials: credentials,
		canaries:    canaries,
		logger:      logger,
	}, nil
}

func newLogger() (*zap.Logger, error) {
	if os.Getenv("BERNARD_DEBUG") != "" {
		return zap.NewDevelopment()
	}
	return zap.NewNop(), nil
}

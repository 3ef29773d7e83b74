package static

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/stevereal007-del/House-Bernard-sub000/internal/domain"
	"github.com/stevereal007-del/House-Bernard-sub000/internal/ports"
)

const (
	configName          = "config"
	configType          = "toml"
	compartmentsPathKey = "compartments.path"
	configDir           = ".bernard"
	compartmentsFile    = "compartments.toml"
)

type Registry struct {
	compartments map[domain.RoleID]domain.Compartment
}

var _ ports.CompartmentRegistry = (*Registry)(nil)

type fileSchema struct {
	Compartments []compartmentSchema `toml:"compartments"`
}

type compartmentSchema struct {
	Role                string   `toml:"role"`
	CredentialScope     []string `toml:"credential_scope"`
	KnowledgeBoundary   []string `toml:"knowledge_boundary"`
	KnowledgeExclusions []string `toml:"knowledge_exclusions"`
	HeartbeatSeconds    int      `toml:"heartbeat_interval_seconds"`
	MissThreshold       int      `toml:"miss_threshold"`
	GeneTier            int      `toml:"gene_tier"`
	IdentityClassified  bool     `toml:"identity_classified"`
}

// NewRegistry loads the compartment table from the path configured under
// compartments.path, falling back to the built-in table when no file exists.
func NewRegistry(cfg *viper.Viper) (*Registry, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	defaultPath := filepath.Join(homeDir, configDir, compartmentsFile)

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(homeDir, configDir))
	cfg.SetDefault(compartmentsPathKey, defaultPath)

	if err := cfg.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	path := cfg.GetString(compartmentsPathKey)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewBuiltinRegistry(), nil
		}
		return nil, fmt.Errorf("read compartments file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode compartments file: %w", err)
	}

	compartments := make(map[domain.RoleID]domain.Compartment, len(file.Compartments))
	for _, entry := range file.Compartments {
		if entry.Role == "" {
			return nil, errors.New("compartment entry without role")
		}
		if entry.HeartbeatSeconds <= 0 || entry.MissThreshold <= 0 {
			return nil, fmt.Errorf("compartment %q needs positive heartbeat interval and miss threshold", entry.Role)
		}
		role := domain.RoleID(entry.Role)
		compartments[role] = domain.Compartment{
			Role:                role,
			CredentialScope:     entry.CredentialScope,
			KnowledgeBoundary:   entry.KnowledgeBoundary,
			KnowledgeExclusions: entry.KnowledgeExclusions,
			HeartbeatInterval:   time.Duration(entry.HeartbeatSeconds) * time.Second,
			MissThreshold:       entry.MissThreshold,
			GeneTier:            entry.GeneTier,
			IdentityClassified:  entry.IdentityClassified,
		}
	}

	return &Registry{compartments: compartments}, nil
}

// NewBuiltinRegistry returns the default House role table.
func NewBuiltinRegistry() *Registry {
	builtin := []domain.Compartment{
		{
			Role:              "citizen",
			CredentialScope:   []string{"comms.basic", "forum.post"},
			KnowledgeBoundary: []string{"district.common"},
			HeartbeatInterval: 900 * time.Second,
			MissThreshold:     2,
			GeneTier:          1,
		},
		{
			Role:                "courier",
			CredentialScope:     []string{"comms.basic", "transit.routes"},
			KnowledgeBoundary:   []string{"district.common", "transit.network"},
			KnowledgeExclusions: []string{"ledger.internal"},
			HeartbeatInterval:   300 * time.Second,
			MissThreshold:       3,
			GeneTier:            2,
		},
		{
			Role:                "archivist",
			CredentialScope:     []string{"archive.read", "archive.write"},
			KnowledgeBoundary:   []string{"archive.stacks"},
			KnowledgeExclusions: []string{"warrants.sealed"},
			HeartbeatInterval:   600 * time.Second,
			MissThreshold:       3,
			GeneTier:            2,
		},
		{
			Role:                "magistrate",
			CredentialScope:     []string{"court.docket", "warrants.read"},
			KnowledgeBoundary:   []string{"court.records", "warrants.sealed"},
			HeartbeatInterval:   300 * time.Second,
			MissThreshold:       2,
			GeneTier:            3,
			IdentityClassified:  true,
			KnowledgeExclusions: []string{"directorate.ops"},
		},
		{
			Role:               "treasurer",
			CredentialScope:    []string{"ledger.read", "ledger.transfer"},
			KnowledgeBoundary:  []string{"ledger.internal"},
			HeartbeatInterval:  300 * time.Second,
			MissThreshold:      2,
			GeneTier:           3,
			IdentityClassified: true,
		},
		{
			Role:               "warden",
			CredentialScope:    []string{"killswitch.manual", "directorate.ops"},
			KnowledgeBoundary:  []string{"directorate.ops"},
			HeartbeatInterval:  120 * time.Second,
			MissThreshold:      1,
			GeneTier:           4,
			IdentityClassified: true,
		},
	}

	compartments := make(map[domain.RoleID]domain.Compartment, len(builtin))
	for _, c := range builtin {
		compartments[c.Role] = c
	}

	return &Registry{compartments: compartments}
}

func (r *Registry) Get(ctx context.Context, role domain.RoleID) (domain.Compartment, error) {
	if err := ctx.Err(); err != nil {
		return domain.Compartment{}, err
	}

	compartment, ok := r.compartments[role]
	if !ok {
		return domain.Compartment{}, domain.ErrUnknownRole
	}

	return compartment, nil
}

func (r *Registry) Roles(ctx context.Context) ([]domain.RoleID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	roles := make([]domain.RoleID, 0, len(r.compartments))
	for role := range r.compartments {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })

	return roles, nil
}

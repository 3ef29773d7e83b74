package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/stevereal007-del/House-Bernard-sub000/internal/domain"
	"github.com/stevereal007-del/House-Bernard-sub000/internal/ports"
)

const (
	auditPathKey         = "audit.path"
	auditFileName        = "audit.toml"
	auditTempFilePattern = ".audit-*.toml.tmp"
)

// AuditLog is append-only: entries are never rewritten or removed, only added
// at the tail of the file.
type AuditLog struct {
	auditPath string
	mu        *sync.RWMutex
}

var _ ports.AuditLog = (*AuditLog)(nil)

func NewAuditLog(cfg *viper.Viper) (*AuditLog, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	defaultPath := filepath.Join(homeDir, stateConfigDir, auditFileName)

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(homeDir, stateConfigDir))
	cfg.SetDefault(auditPathKey, defaultPath)

	if err := cfg.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	auditPath := cfg.GetString(auditPathKey)
	if auditPath == "" {
		return nil, errors.New("audit path is empty")
	}
	auditPath, err = normalizePath(auditPath)
	if err != nil {
		return nil, err
	}

	return &AuditLog{auditPath: auditPath, mu: lockForPath(auditPath)}, nil
}

func (l *AuditLog) Append(ctx context.Context, entry domain.AuditEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := l.readSchema()
	if err != nil {
		return err
	}
	file.applyDefaults()

	file.Entries = append(file.Entries, toAuditSchema(entry))

	if err := ctx.Err(); err != nil {
		return err
	}

	return writeAtomic(l.auditPath, auditTempFilePattern, file)
}

func (l *AuditLog) List(ctx context.Context) ([]domain.AuditEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	file, err := l.readSchema()
	if err != nil {
		return nil, err
	}

	entries := make([]domain.AuditEntry, 0, len(file.Entries))
	for _, entry := range file.Entries {
		entries = append(entries, fromAuditSchema(entry))
	}

	return entries, nil
}

func (l *AuditLog) readSchema() (auditFileSchema, error) {
	data, err := os.ReadFile(l.auditPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return auditFileSchema{}, nil
		}
		return auditFileSchema{}, fmt.Errorf("read audit file: %w", err)
	}

	var file auditFileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return auditFileSchema{}, fmt.Errorf("decode audit file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return auditFileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

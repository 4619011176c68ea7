package draft

import (
	"context"
	"fmt"

	"github.com/existflow/projectdraft/internal/config"
)

// Open builds the store selected by cfg.Driver
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	var sealer *Sealer
	if cfg.EncryptionKey != "" {
		s, err := NewSealer(cfg.EncryptionKey, cfg.EncryptionSalt)
		if err != nil {
			return nil, err
		}
		sealer = s
	}

	switch cfg.Driver {
	case config.DriverMemory:
		return NewMemoryStore(), nil
	case config.DriverFile:
		return NewFileStore(cfg.FilePath, sealer)
	case config.DriverSQLite, config.DriverPostgres:
		return OpenSQL(ctx, cfg.Driver, cfg.DSN, sealer)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

package admincli

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/partsinventory/internal/cryptox"
	"github.com/dmitrijs2005/partsinventory/internal/dbx"
	"github.com/dmitrijs2005/partsinventory/internal/logging"
	"github.com/dmitrijs2005/partsinventory/internal/server/config"
	"github.com/dmitrijs2005/partsinventory/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/partsinventory/internal/server/services"
)

// OpenPostgres connects to the configured database, applies pending
// migrations when the config asks for it and returns a UserService.
func OpenPostgres(ctx context.Context, cfg *config.Config) (UserAdmin, func() error, error) {
	logger, err := logging.NewJSON(os.Stderr, cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	db, err := dbx.Open(ctx, cfg.DatabaseDSN, cfg.PersistenceTimeout, dbx.PoolOptions{MaxOpenConns: 2})
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if cfg.MigrateOnStart {
		if err := rm.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrations error: %w", err)
		}
	}

	us := services.NewUserService(db, rm, cryptox.NewPBKDF2Hasher(), logger.With("module", "useradmin"))
	return us, db.Close, nil
}

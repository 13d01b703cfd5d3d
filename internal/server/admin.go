package server

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/docshare/internal/clock"
	"github.com/dmitrijs2005/docshare/internal/logging"
	"github.com/dmitrijs2005/docshare/internal/server/auth"
	"github.com/dmitrijs2005/docshare/internal/server/config"
	"github.com/dmitrijs2005/docshare/internal/server/services"
)

// OpenUserService opens and migrates the configured database and returns
// a UserService over it, for operator tooling. The caller closes db.
func OpenUserService(ctx context.Context, c *config.Config, logger logging.Logger) (*services.UserService, *sql.DB, error) {
	if logger == nil {
		logger = logging.Nop()
	}

	clk := clock.Real()
	db, rm, err := openStore(ctx, c.DatabaseDSN, clk, logger)
	if err != nil {
		return nil, nil, err
	}

	tokens := auth.NewTokenAuthority([]byte(c.SecretKey), c.IdentityTokenTTL, c.ResourceTokenTTL, clk, logger)
	return services.NewUserService(db, rm, tokens, auth.NewBcryptHasher(auth.DefaultBcryptCost), logger), db, nil
}

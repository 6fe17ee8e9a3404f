package bootstrap

import (
	"github.com/GigFlow-MobileApp/gigflow-server/internal/cache"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/config"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/core"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/models"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/rideshare"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/services"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/store"
)

// initializeServices creates all business logic services
func initializeServices(
	cfg *config.Config,
	db *store.Store,
	providers rideshare.Registry,
	accountCache cache.CacheWithFetch[models.Account],
	recorder core.Recorder,
) (*services.UserService, *services.TokenService, *services.AccountService, *services.LinkService) {
	userService := services.NewUserService(db, recorder)
	tokenService := services.NewTokenService(cfg)
	accountService := services.NewAccountService(db, providers)
	linkService := services.NewLinkService(db, providers, accountCache, recorder)

	return userService, tokenService, accountService, linkService
}

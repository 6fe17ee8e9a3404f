package bootstrap

import (
	"github.com/GigFlow-MobileApp/gigflow-server/internal/config"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/handlers"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/services"
)

// handlerSet holds all HTTP handlers
type handlerSet struct {
	auth      *handlers.AuthHandler
	accounts  *handlers.AccountHandler
	rideshare *handlers.RideshareHandler
}

// initializeHandlers creates all HTTP handlers
func initializeHandlers(
	cfg *config.Config,
	userService *services.UserService,
	tokenService *services.TokenService,
	accountService *services.AccountService,
	linkService *services.LinkService,
) handlerSet {
	return handlerSet{
		auth:      handlers.NewAuthHandler(userService, tokenService),
		accounts:  handlers.NewAccountHandler(accountService),
		rideshare: handlers.NewRideshareHandler(linkService, cfg.BaseURL),
	}
}

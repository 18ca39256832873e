//go:build wireinject
// +build wireinject

package di

import (
	"hms/config"
	"hms/infras/jwt"
	"hms/infras/otel"
	"hms/infras/postgres"
	"hms/infras/redis"
	"hms/infras/s3"
	"hms/permissions"
	"hms/shared/cache"
	"hms/transport/http"
	"hms/transport/http/middleware"
	"hms/transport/http/router"

	"github.com/google/wire"

	authService "hms/internal/domains/auth/service"
	requestRepository "hms/internal/domains/request/repository"
	requestService "hms/internal/domains/request/service"
	userRepository "hms/internal/domains/user/repository"
	userService "hms/internal/domains/user/service"
	authHandler "hms/internal/handlers/auth"
	requestHandler "hms/internal/handlers/request"
	userHandler "hms/internal/handlers/user"
)

var configurations = wire.NewSet(
	config.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	jwt.New,
	s3.New,
)

var middlewares = wire.NewSet(
	permissions.Get,
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
)

var authDomain = wire.NewSet(
	authService.New,
)

var userDomain = wire.NewSet(
	userRepository.New,
	userService.New,
)

var requestDomain = wire.NewSet(
	requestRepository.New,
	requestService.New,
)

var domains = wire.NewSet(
	authDomain,
	userDomain,
	requestDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	authHandler.New,
	userHandler.New,
	requestHandler.New,
	router.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
	)

	return &http.HTTP{}
}

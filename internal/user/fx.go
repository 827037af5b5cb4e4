package user

import (
	"github.com/smallbiznis/luggagehub/internal/user/repository"
	"github.com/smallbiznis/luggagehub/internal/user/service"
	"go.uber.org/fx"
)

var Module = fx.Module("user.service",
	fx.Provide(repository.Provide),
	fx.Provide(repository.ProvideLinkTokens),
	fx.Provide(service.NewService),
)

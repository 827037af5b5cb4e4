package request

import (
	"github.com/smallbiznis/luggagehub/internal/request/repository"
	"github.com/smallbiznis/luggagehub/internal/request/service"
	"go.uber.org/fx"
)

var Module = fx.Module("request.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)

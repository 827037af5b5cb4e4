package conversation

import (
	"github.com/smallbiznis/luggagehub/internal/conversation/repository"
	"github.com/smallbiznis/luggagehub/internal/conversation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("conversation.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)

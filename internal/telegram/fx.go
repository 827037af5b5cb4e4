package telegram

import "go.uber.org/fx"

var Module = fx.Module("telegram.bot",
	fx.Provide(NewDispatcher),
)

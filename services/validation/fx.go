package validation

import (
	"go.uber.org/fx"
)

var Module = fx.Module("validation.module",
	fx.Provide(
		NewService,
		NewScheduler,
	),
	fx.Invoke(StartScheduler),
)

package ranking

import "go.uber.org/fx"

var Module = fx.Module("ranking.module",
	fx.Provide(
		NewCache,
		NewService,
	),
)

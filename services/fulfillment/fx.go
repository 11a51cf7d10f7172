package fulfillment

import (
	"github.com/hibiken/asynq"
	"go.uber.org/fx"
)

var Module = fx.Module("fulfillment.module",
	fx.Provide(
		NewService,
		NewTaskHandler,
	),
	fx.Invoke(func(mux *asynq.ServeMux, h *TaskHandler) {
		h.Register(mux)
	}),
)

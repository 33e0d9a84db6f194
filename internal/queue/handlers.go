package queue

import (
	"context"

	"github.com/hibiken/asynq"
)

// HandlersRegistry maps task types to handlers for the worker server.
type HandlersRegistry struct {
	mux *asynq.ServeMux
}

func NewHandlersRegistry() *HandlersRegistry {
	return &HandlersRegistry{mux: asynq.NewServeMux()}
}

func (r *HandlersRegistry) Register(taskType string, handler asynq.Handler) {
	r.mux.Handle(taskType, handler)
}

func (r *HandlersRegistry) RegisterFunc(taskType string, fn func(context.Context, *asynq.Task) error) {
	r.mux.HandleFunc(taskType, fn)
}

func (r *HandlersRegistry) Mux() *asynq.ServeMux {
	return r.mux
}

package router

import (
	"fmt"
	"net/http"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/taskboard/api/handler"
	"github.com/fastygo/taskboard/api/transport"
	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/internal/middleware"
)

type Handlers struct {
	Task   *apiHandler.TaskHandler
	Health *apiHandler.HealthHandler
}

// New registers the collection routes under basePath ("" mounts them at the root).
func New(handlers Handlers, basePath string, logger *zap.Logger) *router.Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := router.New()
	r.HandleMethodNotAllowed = true
	r.HandleOPTIONS = false

	if handlers.Health != nil {
		r.GET(basePath+"/health", handlers.Health.Check)
	}

	r.GET(basePath+"/tasks", handlers.Task.GetTasks)
	r.POST(basePath+"/tasks", handlers.Task.CreateTask)
	r.GET(basePath+"/tasks/{id}", handlers.Task.GetTask)
	r.PUT(basePath+"/tasks/{id}", handlers.Task.UpdateTask)
	r.DELETE(basePath+"/tasks/{id}", handlers.Task.DeleteTask)

	r.MethodNotAllowed = func(ctx *fasthttp.RequestCtx) {
		writeError(ctx, http.StatusMethodNotAllowed, transport.ErrorBody{Error: domain.ErrMethodNotAllowed.Message})
	}
	r.NotFound = func(ctx *fasthttp.RequestCtx) {
		writeError(ctx, http.StatusNotFound, transport.NewError(string(domain.ErrCodeNotFound), "route not found"))
	}
	r.PanicHandler = func(ctx *fasthttp.RequestCtx, rcv interface{}) {
		logger.Error("handler panicked", zap.String("panic", fmt.Sprint(rcv)), zap.ByteString("path", ctx.Path()))
		writeError(ctx, http.StatusInternalServerError, transport.NewError(string(domain.ErrCodeInternal), "internal error"))
	}

	return r
}

// Handler wraps the router with the request logger and CORS.
func Handler(r *router.Router, logger *zap.Logger) fasthttp.RequestHandler {
	return middleware.RequestLogger(logger)(middleware.CORS(r.Handler))
}

func writeError(ctx *fasthttp.RequestCtx, status int, body transport.ErrorBody) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBodyString(body.String())
}

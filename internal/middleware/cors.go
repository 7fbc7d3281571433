package middleware

import (
	"github.com/valyala/fasthttp"
)

const (
	allowMethods = "GET, POST, PUT, DELETE, OPTIONS"
	allowHeaders = "Content-Type"
)

// CORS opens the collection to any origin. Preflight requests are answered
// here with an empty 200 and never reach the router.
func CORS(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		ctx.Response.Header.Set("Access-Control-Allow-Origin", "*")
		ctx.Response.Header.Set("Access-Control-Allow-Credentials", "true")
		ctx.Response.Header.Set("Access-Control-Allow-Methods", allowMethods)
		ctx.Response.Header.Set("Access-Control-Allow-Headers", allowHeaders)

		if ctx.IsOptions() {
			ctx.SetStatusCode(fasthttp.StatusOK)
			ctx.ResetBody()
			return
		}
		next(ctx)
	}
}

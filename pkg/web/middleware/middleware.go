package middleware

import (
	"context"
	"net/http"
	"regexp"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/hertz-contrib/cors"
	"github.com/samber/oops"

	"my-blog/pkg/common/config"
	apperrors "my-blog/pkg/common/errors"
	"my-blog/pkg/common/metrics"
)

// LoggerMiddleware 结构化的请求日志记录
func LoggerMiddleware(m *metrics.Metrics) app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		start := time.Now()
		ctx.Next(c) // 放行到后续处理器
		latency := time.Since(start)
		status := ctx.Response.StatusCode()

		m.ObserveRequest(string(ctx.Method()), status, latency)
		hlog.CtxInfof(c, "| %3d | %13v | %15s | %-7s | %s | UA=%s",
			status,
			latency,
			ctx.ClientIP(),
			ctx.Method(),
			ctx.Path(),
			ctx.GetHeader("User-Agent"),
		)
	}
}

// RecoveryMiddleware 异常捕获, 堆栈只写日志, 不返回给客户端
func RecoveryMiddleware() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		defer func() {
			if err := recover(); err != nil {
				hlog.CtxErrorf(c, "[PANIC RECOVERED] %v\n%s", err, debug.Stack())
				ctx.AbortWithStatusJSON(http.StatusInternalServerError, utils.H{
					"error": "internal server error",
				})
			}
		}()
		ctx.Next(c)
	}
}

// ErrorHandlerMiddleware renders the last error recorded with ctx.Error as
// {"error": "..."}. Unexpected errors are logged and replaced by a generic
// message.
func ErrorHandlerMiddleware() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		ctx.Next(c)

		last := ctx.Errors.Last()
		if last == nil {
			return
		}

		status, msg := apperrors.Resolve(last.Err)
		if status >= http.StatusInternalServerError {
			logUnexpected(c, ctx, last.Err)
		} else {
			hlog.CtxDebugf(c, "request rejected path=%s status=%d err=%v", ctx.Path(), status, last.Err)
		}
		ctx.AbortWithStatusJSON(status, utils.H{"error": msg})
	}
}

func logUnexpected(c context.Context, ctx *app.RequestContext, err error) {
	if oopsErr, ok := oops.AsOops(err); ok {
		hlog.CtxErrorf(c, "request failed path=%s code=%v context=%v err=%s",
			ctx.Path(), oopsErr.Code(), oopsErr.Context(), oopsErr.Error())
		return
	}
	hlog.CtxErrorf(c, "request failed path=%s err=%v", ctx.Path(), err)
}

// CORSMiddleware 安全的跨域配置
func CORSMiddleware(corsConfig config.CORSConfig) app.HandlerFunc {
	return cors.New(
		cors.Config{
			AllowOrigins:     corsConfig.AllowOrigins,
			AllowMethods:     corsConfig.AllowMethods,
			AllowHeaders:     corsConfig.AllowHeaders,
			ExposeHeaders:    corsConfig.ExposeHeaders,
			AllowCredentials: corsConfig.AllowCredentials,
			MaxAge:           corsConfig.MaxAge,
			// 动态校验来源
			AllowOriginFunc: func(origin string) bool {
				for _, allowed := range corsConfig.AllowOrigins {
					if origin == allowed {
						return true
					}
				}
				for _, domain := range corsConfig.TrustedDomains {
					if strings.HasSuffix(origin, domain) {
						return true
					}
				}
				return false
			},
		},
	)
}

// TimeoutMiddleware attaches a deadline to the request context. Handlers run
// on the calling goroutine; database calls observe the deadline and surface
// it as a 503.
func TimeoutMiddleware(seconds int) app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		if seconds <= 0 {
			ctx.Next(c)
			return
		}
		timeoutCtx, cancel := context.WithTimeout(c, time.Duration(seconds)*time.Second)
		defer cancel()

		ctx.Next(timeoutCtx)

		if timeoutCtx.Err() == context.DeadlineExceeded {
			hlog.CtxWarnf(c, "request timeout path=%s", ctx.Path())
		}
	}
}

// SecurityCheckMiddleware 全局安全校验中间件
func SecurityCheckMiddleware(cfg config.SecurityConfig) app.HandlerFunc {
	// 预编译恶意字符正则
	xssRegex := regexp.MustCompile(`(?i)<script.*?>|</script>|alert\(|onerror=`)

	allowed := make(map[string]bool, len(cfg.AllowedMethods))
	for _, m := range cfg.AllowedMethods {
		allowed[strings.ToUpper(m)] = true
	}

	return func(c context.Context, ctx *app.RequestContext) {
		// 防护机制1：请求体大小限制
		if cfg.MaxBodySize > 0 && int64(ctx.Request.Header.ContentLength()) > cfg.MaxBodySize {
			securityResponse(ctx, "request body exceeds max size", http.StatusRequestEntityTooLarge)
			return
		}

		// 防护机制2：查询参数恶意字符检查
		if hasMaliciousQuery(ctx, xssRegex) {
			securityResponse(ctx, "request contains invalid characters", http.StatusUnprocessableEntity)
			return
		}

		// 防护机制3：检查HTTP方法
		if len(allowed) > 0 && !allowed[string(ctx.Method())] {
			securityResponse(ctx, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		ctx.Next(c)
	}
}

func hasMaliciousQuery(ctx *app.RequestContext, xss *regexp.Regexp) bool {
	var found int32
	ctx.QueryArgs().VisitAll(func(key, value []byte) {
		if atomic.LoadInt32(&found) == 1 {
			return // 已经找到匹配，跳过后续检查
		}
		if xss.Match(key) || xss.Match(value) {
			atomic.StoreInt32(&found, 1)
		}
	})
	return atomic.LoadInt32(&found) == 1
}

// 安全响应统一处理
func securityResponse(ctx *app.RequestContext, msg string, status int) {
	hlog.Warnf("SecurityAlert[status=%d]: %s path=%s", status, msg, ctx.Path())
	ctx.AbortWithStatusJSON(status, utils.H{
		"error": msg,
	})
}

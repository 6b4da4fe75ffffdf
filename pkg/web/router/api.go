package router

import (
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/adaptor"

	"my-blog/pkg/common/config"
	"my-blog/pkg/common/metrics"
	"my-blog/pkg/core/auth/guard"
	postservice "my-blog/pkg/core/post/service"
	userservice "my-blog/pkg/core/user/service"
	"my-blog/pkg/web/handler"
	"my-blog/pkg/web/middleware"
)

// Services is everything the routes need, built once in main.
type Services struct {
	Users   *userservice.UserService
	Posts   *postservice.PostService
	Guard   *guard.Guard
	DB      handler.Pinger
	Metrics *metrics.Metrics
}

// RegisterAPIs 注册所有API路由
func RegisterAPIs(h *server.Hertz, cfg *config.Config, svc Services) error {
	// 初始化Handler实例
	healthHandler := handler.NewHealthCheckHandler(svc.DB)
	userHandler := handler.NewUserHandler(svc.Users)
	postHandler := handler.NewPostHandler(svc.Posts)
	auth, err := middleware.AuthMiddleware(cfg.Middleware.JWT, svc.Guard, svc.Metrics)
	if err != nil {
		return err
	}

	// 注册全局中间件（按执行顺序）
	h.Use(
		middleware.RecoveryMiddleware(),
		middleware.LoggerMiddleware(svc.Metrics),
		middleware.ErrorHandlerMiddleware(),
		middleware.SecurityCheckMiddleware(cfg.Middleware.Security),
		middleware.TimeoutMiddleware(cfg.Middleware.Timeout.RequestTimeout),
		middleware.CORSMiddleware(cfg.Middleware.CORS),
	)

	// 基础接口组
	h.GET("/health", healthHandler.AdvancedHealthCheck)
	if svc.Metrics != nil {
		h.GET("/metrics", adaptor.HertzHandler(svc.Metrics.Handler()))
	}

	// 业务接口组
	apiGroup := h.Group("/api/v1")
	{
		// 用户相关接口
		userGroup := apiGroup.Group("/users")
		{
			userGroup.POST("/register", userHandler.Register)
			userGroup.POST("/login", userHandler.Login)
			userGroup.GET("/me", auth, userHandler.Me)
		}

		// 公开的文章接口, 不做归属校验
		apiGroup.GET("/posts", postHandler.List)
		apiGroup.GET("/posts/view/:id", postHandler.View)

		// 需要身份认证且校验归属的接口
		ownerGroup := apiGroup.Group("/posts", auth)
		{
			ownerGroup.POST("", postHandler.Create)
			ownerGroup.GET("/mine", postHandler.ListMine)
			ownerGroup.GET("/:id", postHandler.GetMine)
			ownerGroup.PUT("/:id", postHandler.Update)
			ownerGroup.DELETE("/:id", postHandler.Delete)
		}
	}
	return nil
}

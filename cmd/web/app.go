package main

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"

	"my-blog/pkg/common/config"
	"my-blog/pkg/common/database"
	"my-blog/pkg/common/metrics"
	"my-blog/pkg/core/auth/guard"
	"my-blog/pkg/core/auth/password"
	"my-blog/pkg/core/auth/token"
	postmodel "my-blog/pkg/core/post/model"
	postdao "my-blog/pkg/core/post/repository/dao/impl"
	postservice "my-blog/pkg/core/post/service"
	usermodel "my-blog/pkg/core/user/model"
	userdao "my-blog/pkg/core/user/repository/dao/impl"
	userservice "my-blog/pkg/core/user/service"
	"my-blog/pkg/web/router"
)

// loadConfig 加载并校验配置, 缺少密钥或连接串时拒绝启动
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.IsProd() {
		hlog.SetLevel(hlog.LevelDebug)
	}
	return cfg, nil
}

func runMigrate(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx, usermodel.AutoMigrate, postmodel.AutoMigrate); err != nil {
		return err
	}
	hlog.Infof("schema migrated (%s)", cfg.Database.Driver)
	return nil
}

func runServe(ctx context.Context) error {
	// 初始化配置
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	hlog.Infof("starting %s", cfg)

	// 初始化数据库连接
	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx, usermodel.AutoMigrate, postmodel.AutoMigrate); err != nil {
			_ = db.Close()
			return err
		}
	}

	svc, err := buildServices(cfg, db)
	if err != nil {
		_ = db.Close()
		return err
	}

	// 创建Hertz实例
	h := server.Default(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
		server.WithMaxRequestBodySize(int(cfg.Middleware.Security.MaxBodySize)),
	)
	h.OnShutdown = append(h.OnShutdown, func(context.Context) {
		if err := db.Close(); err != nil {
			hlog.Warnf("close database: %v", err)
		}
	})

	// 注册路由
	if err := router.RegisterAPIs(h, cfg, svc); err != nil {
		_ = db.Close()
		return err
	}

	// 启动服务
	h.Spin()
	return nil
}

// buildServices 依赖注入
func buildServices(cfg *config.Config, db *database.Database) (router.Services, error) {
	m := metrics.New()

	hasher, err := password.NewBcryptHasher(cfg.Password.Cost, cfg.HashConcurrency())
	if err != nil {
		return router.Services{}, err
	}
	tokens, err := token.NewService(cfg.Middleware.JWT)
	if err != nil {
		return router.Services{}, err
	}

	users, err := userservice.NewUserService(userdao.NewGormUserRepository(db.Gorm()), hasher, tokens, m)
	if err != nil {
		return router.Services{}, err
	}

	return router.Services{
		Users:   users,
		Posts:   postservice.NewPostService(postdao.NewGormPostRepository(db.Gorm())),
		Guard:   guard.New(tokens),
		DB:      db,
		Metrics: m,
	}, nil
}

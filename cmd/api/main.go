package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	appcontext "github.com/qooqz/certificates/internal/app_context"
	"github.com/qooqz/certificates/internal/auth"
	"github.com/qooqz/certificates/internal/config"
	"github.com/qooqz/certificates/internal/controller"
	"github.com/qooqz/certificates/internal/database"
	"github.com/qooqz/certificates/internal/env"
	"github.com/qooqz/certificates/internal/identifier"
	"github.com/qooqz/certificates/internal/lifecycle"
	"github.com/qooqz/certificates/internal/middleware"
	"github.com/qooqz/certificates/internal/pipeline"
	ratelimiter "github.com/qooqz/certificates/internal/rate_limiter"
	"github.com/qooqz/certificates/internal/repository"
	"github.com/qooqz/certificates/internal/route"
	"github.com/qooqz/certificates/internal/util"
	"github.com/qooqz/certificates/internal/verification"
)

// this function run before main
func init() {
	env.LoadEnv(".env")
}

func main() {
	cfg := config.GetConfig()

	logger := util.NewLogger(cfg.ENV)
	logger.Debugf("Configuration: %+v \n", cfg)

	db, err := database.ConnectReturnGormDB(cfg.DB)
	if err != nil {
		logger.Panic(err)
	}

	sqlDb, err := db.DB()
	if err != nil {
		logger.Panic(err)
	}
	defer sqlDb.Close()
	logger.Info("Database connected \n")

	// Custom validation
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := v.RegisterValidation("strNotEmpty", util.StrNotEmpty); err != nil {
			return
		}
		if err = v.RegisterValidation("cmin", util.CustomMin); err != nil {
			return
		}
		if err = v.RegisterValidation("cmax", util.CustomMax); err != nil {
			return
		}
	}

	rateLimiter := ratelimiter.NewRateLimiter(cfg.RateLimiter, logger)
	jwtService := auth.NewJwt(cfg.Auth, logger)
	repo := repository.NewRepository(db, logger)

	lifecycleService := lifecycle.NewService(repo, identifier.NewGenerator(), logger)
	assetPipeline := pipeline.NewPipeline(repo, pipeline.NewHTTPQRFetcher(cfg.QR), pipeline.NewPDFCPURenderer(), cfg.App, logger)
	verifyService := verification.NewService(repo, logger)

	app := appcontext.Application{
		Config:       &cfg,
		Repository:   repo,
		Logger:       logger,
		Lifecycle:    lifecycleService,
		Pipeline:     assetPipeline,
		Verification: verifyService,
		JWTService:   jwtService,
	}

	_middleware := middleware.NewMiddleware(&app, rateLimiter)

	if cfg.ENV == "production" {
		logger.Info("Running in production mode")
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	// docs: https://github.com/gin-contrib/cors?tab=readme-ov-file#using-defaultconfig-as-start-point
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Requested-With", "Accept"}
	r.Use(cors.New(corsConfig))
	r.Use(_middleware.RateLimiterMiddleware)

	_controller := controller.NewController(&app)

	r.GET("/", _controller.Index.Index)

	rApi := r.Group("/api")

	route.V1_Requests(rApi, _controller.Request, _controller.Audit, _controller.Correction, _middleware)
	route.V1_Corrections(rApi, _controller.Correction, _middleware)
	route.V1_Issued(rApi, _controller.Issued, _middleware)
	route.V1_Verify(rApi, _controller.Verify)

	if err := r.Run("0.0.0.0:" + app.Config.Port); err != nil {
		logger.Panic("Error running server: %v \n", err)
	}
}

package router

import (
	"net/http"
	"time"

	"github.com/Xushengqwer/go-common/core"
	commonMiddleware "github.com/Xushengqwer/go-common/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	appConfig "github.com/Xushengqwer/discussion_service/config"
	"github.com/Xushengqwer/discussion_service/constant"
	"github.com/Xushengqwer/discussion_service/controller"
	"github.com/Xushengqwer/discussion_service/middleware"
)

// APIPrefix 所有业务接口的公共前缀
const APIPrefix = "/api/v1/discussion"

// SetupRouter 仅负责配置 Gin 引擎、中间件和路由注册。
func SetupRouter(
	logger *core.ZapLogger,
	cfg *appConfig.DiscussionConfig,
	postController *controller.PostController,
	hotPostController *controller.HotPostController,
	replyController *controller.ReplyController,
) *gin.Engine {
	router := gin.New()

	// 1. OTel 最先，后续中间件的日志才能带上 TraceID
	router.Use(otelgin.Middleware(constant.ServiceName))
	router.Use(commonMiddleware.ErrorHandlingMiddleware(logger))
	router.Use(commonMiddleware.RequestLoggerMiddleware(logger.Logger()))

	if len(cfg.CORSConfig.AllowOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CORSConfig.AllowOrigins,
			AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", constant.UserRoleHeader},
			MaxAge:       12 * time.Hour,
		}))
	}

	requestTimeout := time.Duration(cfg.ServerConfig.RequestTimeout) * time.Second
	router.Use(commonMiddleware.RequestTimeoutMiddleware(logger, requestTimeout))

	// 用户 ID 与角色都由网关透传
	router.Use(commonMiddleware.UserContextMiddleware())
	router.Use(middleware.RoleContextMiddleware())

	v1 := router.Group(APIPrefix)
	// /posts/hot 是静态路径，先于 /posts/:id 注册
	hotPostController.RegisterRoutes(v1)
	postController.RegisterRoutes(v1)
	replyController.RegisterRoutes(v1)
	logger.Info("所有控制器路由已注册", zap.String("prefix", APIPrefix))

	swaggerURL := ginSwagger.URL("/swagger/doc.json")
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, swaggerURL))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	return router
}

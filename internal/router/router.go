package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/live-request-service/api"
	"github.com/psds-microservice/live-request-service/internal/handler"
	"github.com/psds-microservice/live-request-service/internal/middleware"
	"github.com/psds-microservice/live-request-service/pkg/constants"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Options: параметры HTTP-слоя, не относящиеся к хендлерам.
type Options struct {
	CORSAllowedOrigins []string
	Logger             *zap.Logger
}

func New(liveRequests *handler.LiveRequestHandler, health *handler.HealthHandler, opts Options) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(opts.Logger))
	if len(opts.CORSAllowedOrigins) > 0 {
		r.Use(middleware.CORS(opts.CORSAllowedOrigins))
	}

	r.GET(constants.PathHealth, health.Health)
	r.GET(constants.PathReady, health.Ready)
	r.GET(constants.PathSwagger+"/*any", func(c *gin.Context) {
		if strings.TrimPrefix(c.Param("any"), "/") == "openapi.json" {
			c.Data(http.StatusOK, "application/json", api.OpenAPISpec)
			return
		}
		if strings.TrimPrefix(c.Param("any"), "/") == "" {
			c.Request.URL.Path = constants.PathSwagger + "/index.html"
			c.Request.RequestURI = constants.PathSwagger + "/index.html"
		}
		ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL(constants.PathSwagger+"/openapi.json"))(c)
	})

	// Пути с завершающим слэшем, как ожидает фронтенд.
	lr := r.Group(constants.PathLiveRequests)
	{
		lr.POST("/", liveRequests.Create)
		lr.GET("/", liveRequests.List)
		lr.GET("/:id/", liveRequests.Get)
		lr.POST("/:id/start/", liveRequests.Start)
		lr.GET("/:id/user-token/", liveRequests.UserToken)
	}

	return r
}

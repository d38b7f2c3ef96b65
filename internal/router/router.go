// internal/router/router.go
package router

import (
	"net/http"
	"time"

	"neuroscreen/internal/assessment"
	"neuroscreen/internal/config"
	"neuroscreen/internal/handlers"
	"neuroscreen/internal/models"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

const sessionName = "neuroscreen"

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.JSON(http.StatusTooManyRequests, gin.H{
		"error":       "Too many requests. Try again later.",
		"retry_after": time.Until(info.ResetTime).Round(time.Second).String(),
	})
}

func Setup(log *zap.Logger, cfg config.Config, battery *models.Battery, registry *assessment.Registry, predictor handlers.Predictor) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))

	store := cookie.NewStore([]byte(cfg.Server.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.Server.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400,
	})
	router.Use(sessions.Sessions(sessionName, store))

	// Sessions must be initialized before these.
	router.Use(NonceMiddleware())
	router.Use(CSRFProtection())
	router.Use(ContentSecurityPolicy())
	router.Use(SecureHeaders(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		IsDevelopment:      !cfg.Server.SecureCookies,
	}))

	if cfg.Server.AssetsDir != "" {
		router.Static("/assets", cfg.Server.AssetsDir)
	}

	assessmentHandler := handlers.NewAssessmentHandler(log, battery, registry)
	resultsHandler := handlers.NewResultsHandler(log, assessmentHandler)
	predictHandler := handlers.NewPredictHandler(log, predictor)

	limit := cfg.Classifier.RateLimit
	if limit <= 0 {
		limit = 5
	}
	rateLimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: uint(limit),
	})
	limiter := ratelimit.RateLimiter(rateLimitStore, &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})

	startLimit := cfg.Assessment.StartLimit
	if startLimit <= 0 {
		startLimit = 30
	}
	startLimiter := ratelimit.RateLimiter(ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: uint(startLimit),
	}), &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})

	router.GET("/", assessmentHandler.Home)
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "attempts": registry.Len()})
	})

	assessmentRoutes := router.Group("/assessment")
	{
		assessmentRoutes.POST("/start", startLimiter, assessmentHandler.Start)
		assessmentRoutes.POST("/reset", startLimiter, assessmentHandler.Start)
		assessmentRoutes.POST("/screening", assessmentHandler.SubmitScreening)
		assessmentRoutes.GET("/trail", assessmentHandler.TrailLayout)
		assessmentRoutes.POST("/trail/click", assessmentHandler.TrailClick)
		assessmentRoutes.GET("/pattern", assessmentHandler.PatternOriginal)
		assessmentRoutes.POST("/pattern/select", assessmentHandler.PatternSelect)
		assessmentRoutes.POST("/pattern/reset", assessmentHandler.PatternReset)
		assessmentRoutes.GET("/results", resultsHandler.ShowResults)
	}

	router.POST("/api/predict", limiter, predictHandler.Predict)

	return router
}

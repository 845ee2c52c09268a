package webserver

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stake-plus/trustek/src/auth"
)

func attachRoutes(r *gin.Engine, deps Deps) {
	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	fcH := NewFactChecks(deps.Service)
	limiter := NewRateLimiter(deps.RateLimit, deps.RateWindow)

	v1 := r.Group("/v1")
	{
		v1.GET("/me", auth.Guard(me, deps.States))
		v1.GET("/factcheck/state", auth.Guard(fcH.State, deps.States))
		v1.DELETE("/factcheck/state", auth.Guard(fcH.Reset, deps.States))
		v1.POST("/factcheck", auth.Guard(chain(RateLimitMiddleware(limiter), fcH.Create), deps.States))
	}
}

func me(c *gin.Context) {
	u, _ := auth.UserFrom(c)
	c.JSON(http.StatusOK, u)
}

// chain runs handlers in order and stops once one aborts.
func chain(handlers ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range handlers {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}

package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"tapcard-backend/internal/config"
)

// CORSMiddleware allows the web client origins listed in CLIENT_URL
// (comma separated). It panics when none are configured.
func CORSMiddleware(appConfig *config.Config) gin.HandlerFunc {
	var origins []string
	if appConfig != nil {
		for _, o := range strings.Split(appConfig.ClientURL, ",") {
			if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
				origins = append(origins, o)
			}
		}
	}
	if len(origins) == 0 {
		panic("ClientURL for CORS is not configured")
	}

	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

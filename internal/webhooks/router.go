package webhooks

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Sana-Rashid-135/coach/internal/health"
)

// NewRouter builds the HTTP surface: the webhook endpoints, a root banner
// (Twilio sandbox consoles sometimes post to "/"), and the health check.
func NewRouter(processor Processor, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	whatsapp := WhatsAppHandler(processor, logger)

	router.POST("/webhooks/whatsapp", whatsapp)
	router.GET("/webhooks/whatsapp", StatusHandler)

	// Root POSTs are treated as webhook deliveries.
	router.POST("/", whatsapp)
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "WhatsApp Coach API is running", "version": "1.0.0"})
	})

	router.GET("/health", gin.WrapF(health.Handler))

	return router
}

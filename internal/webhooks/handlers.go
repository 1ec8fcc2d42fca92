// Package webhooks exposes the Twilio WhatsApp webhook over HTTP.
package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Sana-Rashid-135/coach/internal/pipeline"
)

// Processor runs one inbound payload through the message pipeline.
// Implemented by pipeline.Pipeline and by test doubles.
type Processor interface {
	Process(ctx context.Context, payload map[string]string) (*pipeline.Result, error)
}

// WhatsAppHandler handles inbound webhook deliveries from Twilio.
func WhatsAppHandler(processor Processor, logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *gin.Context) {
		payload := requestPayload(c)

		result, err := processor.Process(c.Request.Context(), payload)
		if err != nil {
			if errors.Is(err, pipeline.ErrInvalidMessage) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message data"})
				return
			}
			// Internal detail stays in the log, not the response.
			logger.Error("Webhook processing failed", "error", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		if result.Duplicate {
			c.JSON(http.StatusOK, gin.H{"status": "duplicate"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "success", "message_sid": result.MessageSID})
	}
}

// StatusHandler confirms the webhook endpoint is reachable.
func StatusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "WhatsApp webhook endpoint is active"})
}

// requestPayload flattens the request into the string map the pipeline
// consumes. Twilio posts application/x-www-form-urlencoded; JSON bodies are
// accepted for manual testing.
func requestPayload(c *gin.Context) map[string]string {
	payload := make(map[string]string)

	if strings.HasPrefix(c.ContentType(), "application/json") {
		_ = json.NewDecoder(c.Request.Body).Decode(&payload)
		return payload
	}

	if err := c.Request.ParseForm(); err != nil {
		return payload
	}
	for key, values := range c.Request.PostForm {
		if len(values) > 0 {
			payload[key] = values[0]
		}
	}
	return payload
}

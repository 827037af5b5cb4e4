package server

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/luggagehub/internal/telegram"
	"github.com/smallbiznis/luggagehub/pkg/telemetry/correlation"
	"go.uber.org/zap"
)

const headerTelegramSecret = "X-Telegram-Bot-Api-Secret-Token"

func (s *Server) Me(c *gin.Context) {
	user, err := s.userSvc.Get(c.Request.Context(), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": user})
}

func (s *Server) IssueTelegramLink(c *gin.Context) {
	resp, err := s.userSvc.IssueLinkToken(c.Request.Context(), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

// TelegramWebhook answers 200 for every authenticated delivery so Telegram
// does not keep retrying updates the bot could not handle.
func (s *Server) TelegramWebhook(c *gin.Context) {
	if secret := s.cfg.Telegram.WebhookSecret; secret != "" {
		got := c.GetHeader(headerTelegramSecret)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			AbortWithError(c, ErrUnauthorized)
			return
		}
	}

	log := s.log.With(zap.String("component", "telegram.webhook"))

	var update telegram.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		log.Warn("malformed telegram update", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}
	log = log.With(zap.Int64("update_id", update.UpdateID))

	ctx := c.Request.Context()
	first, err := s.updateDeduper.FirstSeen(ctx, update.UpdateID)
	if err != nil {
		log.Warn("telegram update dedupe failed", zap.Error(err))
	}
	if !first {
		log.Debug("duplicate telegram update dropped")
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	if err := s.bot.Handle(correlation.Detach(ctx), update); err != nil {
		log.Warn("telegram update not handled", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

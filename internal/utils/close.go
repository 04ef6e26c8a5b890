package utils

import (
	"io"

	"github.com/MrSnakeDoc/yaelah/internal/logger"
)

// CloseLogged closes c and logs the outcome under name. Used on shutdown,
// where a failed close must not abort the remaining cleanup.
func CloseLogged(c io.Closer, name string, log logger.Logger) {
	if err := c.Close(); err != nil {
		log.Warn("failed to close "+name, logger.Error(err))
		return
	}
	log.Info("✅ " + name + " closed cleanly")
}

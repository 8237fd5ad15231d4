package api

import (
	"embed"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
	"github.com/jroosing/dnstrace/internal/api/models"
)

// Built-in event viewer, served at / unless a static directory is configured.
//
//go:embed ui/*
var embeddedUI embed.FS

func uiFileSystem(dir string) static.ServeFileSystem {
	if dir != "" {
		return static.LocalFile(dir, false)
	}
	fs, err := static.EmbedFolder(embeddedUI, "ui")
	if err != nil {
		panic("failed to get embedded UI filesystem: " + err.Error())
	}
	return fs
}

// MountUI serves dir (or the built-in viewer) at the site root. Paths under
// /api that match no route get a JSON 404.
func MountUI(r *gin.Engine, dir string, logger *slog.Logger) {
	if dir != "" {
		logger.Info("serving static directory", "dir", dir)
	}
	r.Use(static.Serve("/", uiFileSystem(dir)))

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not found"})
			return
		}
		c.String(http.StatusNotFound, "404 page not found")
	})
}

package handler

import (
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Edits           *EditHandler
	Events          *EventsHandler
	Assets          *AssetHandler
	RegenerateLimit gin.HandlerFunc
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/", deps.Edits.Landing)
	api.GET("/edit/:name", deps.Edits.Get)
	api.POST("/edit/:name", deps.Edits.Save)

	api.GET("/api/documents", deps.Edits.List)
	if deps.RegenerateLimit != nil {
		api.POST("/api/regenerate", deps.RegenerateLimit, deps.Edits.Regenerate)
	} else {
		api.POST("/api/regenerate", deps.Edits.Regenerate)
	}

	if deps.Assets != nil {
		api.GET("/api/assets", deps.Assets.List)
		api.POST("/api/assets", deps.Assets.Upload)
		api.GET("/assets/:name", deps.Assets.Get)
	}

	if deps.Events != nil {
		api.GET("/ws", deps.Events.Subscribe)
	}
}

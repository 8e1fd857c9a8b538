package handler

import (
	"github.com/gin-gonic/gin"
)

type routeRegistrar interface {
	RegisterRoutes(router *gin.RouterGroup)
}

// RegisterAll mounts every handler on the authenticated /api group.
func RegisterAll(api *gin.RouterGroup, handlers ...routeRegistrar) {
	for _, h := range handlers {
		h.RegisterRoutes(api)
	}
}

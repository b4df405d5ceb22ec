package http

import (
	"github.com/gin-gonic/gin"
)

// Module is an HTTP-facing bounded context.
type Module interface {
	// Name is used in logs.
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext is what a module may mount routes on.
type RouterContext struct {
	// Engine serves the unversioned paths operators and probes use.
	Engine *gin.Engine
	// V1 is the /api/v1 group.
	V1 *gin.RouterGroup
}

// Mounts returns every prefix a module serving both the bare and the
// versioned paths should register on, root first.
func (rc *RouterContext) Mounts() []gin.IRoutes {
	return []gin.IRoutes{rc.Engine, rc.V1}
}

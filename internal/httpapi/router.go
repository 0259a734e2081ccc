// Package httpapi is the gateway's external HTTP surface: channel webhook
// ingestion, the host-terminal WebSocket upgrade route, config-diagnostics
// and provider-catalog read endpoints, the sandbox image-build trigger, and
// a browser-pool instance listing, grounded on the teacher's
// internal/delivery/server/http router (adapted from its stdlib
// http.ServeMux dispatch to gin, per this gateway's own dependency set).
package httpapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/moltislabs/moltis/internal/browser"
	"github.com/moltislabs/moltis/internal/channel"
	"github.com/moltislabs/moltis/internal/provider"
	"github.com/moltislabs/moltis/internal/sandbox"
	"github.com/moltislabs/moltis/internal/terminal"
)

// Deps bundles the gateway-wide shared state every handler group needs.
type Deps struct {
	Sink          *channel.Sink
	Registry      *provider.Container
	SandboxRouter *sandbox.Router
	BrowserPool   *browser.Pool
	TerminalCfg   terminal.Config
}

// NewRouter builds the gin engine with every route group registered.
func NewRouter(deps Deps) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Content-Type", "Authorization"},
	}))

	ch := &channelHandlers{sink: deps.Sink}
	cfgH := &configHandlers{}
	provH := &providerHandlers{registry: deps.Registry}
	sbH := &sandboxHandlers{router: deps.SandboxRouter}
	brH := &browserHandlers{pool: deps.BrowserPool}

	api := r.Group("/api")
	{
		api.POST("/channels/:type/webhook", ch.Webhook)
		api.POST("/config/validate", cfgH.Validate)
		api.GET("/providers", provH.List)
		api.POST("/sandbox/build-image", sbH.BuildImage)
		api.GET("/sandbox/images", sbH.ListImages)
		api.GET("/browser/instances", brH.ListInstances)
	}

	r.GET("/terminal/ws", func(c *gin.Context) {
		terminal.HandleUpgrade(c.Writer, c.Request, deps.TerminalCfg)
	})

	return r
}

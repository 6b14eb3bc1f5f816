package gateway

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/palco-live/cadastro/internal/agent/model"
	errx "github.com/palco-live/cadastro/internal/core/error"
	logx "github.com/palco-live/cadastro/pkg/logger"
)

// TenantHeader carries the tenant routing key set by the fronting channel
// proxy on every webhook call.
const TenantHeader = "X-Tenant-ID"

// Core is the slice of the orchestrator the gateway calls.
type Core interface {
	HandleInbound(ctx context.Context, userIdentity, tenantID, rawText string) (string, error)
}

// Pinger checks one backing dependency for the health endpoint.
type Pinger func(ctx context.Context) error

// Config carries the HTTP surface tunables.
type Config struct {
	Addr string
}

// Server is the inbound webhook surface. It never initiates outbound sends;
// the reply rides back in the response body and the fronting proxy delivers
// it on the channel.
type Server struct {
	echo   *echo.Echo
	addr   string
	core   Core
	states model.StateRepository
	pings  map[string]Pinger
}

// NewServer wires the routes over the given core and state store. The pings
// map holds one health check per backing dependency, keyed by its name in
// the health payload.
func NewServer(cfg Config, core Core, states model.StateRepository, pings map[string]Pinger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logx.Info().
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))

	s := &Server{
		echo:   e,
		addr:   cfg.Addr,
		core:   core,
		states: states,
		pings:  pings,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.echo.POST("/webhook/inbound", s.inbound)
	s.echo.GET("/healthz", s.healthz)

	admin := s.echo.Group("/admin")
	admin.GET("/conversations/:identity", s.getConversation)
	admin.DELETE("/conversations/:identity", s.deleteConversation)
}

// Start blocks serving until Shutdown is called.
func (s *Server) Start() error {
	return s.echo.Start(s.addr)
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

type inboundResponse struct {
	To    string `json:"to"`
	Reply string `json:"reply"`
}

// inbound handles one channel callback: form fields From and Body, tenant in
// the routing header. The response is always 200 with a usable reply; a
// degraded turn (provider outage, store failure) is logged, not surfaced,
// because the reply already tells the user what to do.
func (s *Server) inbound(c echo.Context) error {
	from := strings.TrimSpace(c.FormValue("From"))
	if from == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing From"})
	}
	tenantID := strings.TrimSpace(c.Request().Header.Get(TenantHeader))
	if tenantID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing " + TenantHeader})
	}
	body := c.FormValue("Body")

	reply, err := s.core.HandleInbound(c.Request().Context(), from, tenantID, body)
	if err != nil {
		logx.Warn().Err(err).Str("identity", from).Msg("turn degraded")
	}
	return c.JSON(http.StatusOK, inboundResponse{To: from, Reply: reply})
}

func (s *Server) healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	out := map[string]string{"status": "ok"}
	code := http.StatusOK
	for name, ping := range s.pings {
		if err := ping(ctx); err != nil {
			out[name] = err.Error()
			out["status"] = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		out[name] = "ok"
	}
	return c.JSON(code, out)
}

func (s *Server) getConversation(c echo.Context) error {
	identity := c.Param("identity")
	state, err := s.states.LoadState(c.Request().Context(), identity)
	if err != nil {
		return c.JSON(storeStatus(err), map[string]string{"error": err.Error()})
	}
	if state == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "conversation not found"})
	}
	return c.JSON(http.StatusOK, state)
}

func (s *Server) deleteConversation(c echo.Context) error {
	identity := c.Param("identity")
	if err := s.states.DeleteState(c.Request().Context(), identity); err != nil {
		return c.JSON(storeStatus(err), map[string]string{"error": err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}

// storeStatus maps a repository error to its carried status, or 500 when the
// error is not an errx.Error.
func storeStatus(err error) int {
	if status := errx.StatusOf(err); status != 0 {
		return status
	}
	return http.StatusInternalServerError
}

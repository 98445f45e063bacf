/* socketapi/app.go */

package socketapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/brightloop/socketapi/internal/logging"
)

// ErrNotRegistered is returned by ChannelHandle.Call when invoked before
// the handle has been added to an App, directly or via a Router.
var ErrNotRegistered = errors.New("socketapi: channel handle not registered with an app")

// config holds the options recognized per §6.3. It is assembled once by
// NewApp from the supplied Option values and never mutated afterward.
type config struct {
	host                  string
	port                  int
	broadcastAllowedHosts map[string]struct{}
	broadcastPath         string
	outboxSize            int
	outboxDeadline        time.Duration
	logger                zerolog.Logger
	validator             Validator
	codec                 Codec
	breaker               BreakerSettings
}

func defaultConfig() config {
	return config{
		host: "localhost",
		port: 8000,
		broadcastAllowedHosts: map[string]struct{}{
			"127.0.0.1": {}, "::1": {}, "localhost": {},
		},
		broadcastPath:  "/broadcast",
		outboxSize:     64,
		outboxDeadline: 5 * time.Second,
		logger:         logging.Logger(),
		validator:      newValidatorAdapter(),
		codec:          defaultCodec(),
		breaker:        defaultBreakerSettings(),
	}
}

// Option configures an App at construction time, via the same variadic
// functional-options idiom as HandlerOptions in seam.go.
type Option func(*config)

func WithHost(host string) Option { return func(c *config) { c.host = host } }
func WithPort(port int) Option    { return func(c *config) { c.port = port } }

func WithBroadcastAllowedHosts(hosts ...string) Option {
	return func(c *config) {
		set := make(map[string]struct{}, len(hosts))
		for _, h := range hosts {
			set[h] = struct{}{}
		}
		c.broadcastAllowedHosts = set
	}
}

func WithBroadcastPath(path string) Option { return func(c *config) { c.broadcastPath = path } }
func WithOutboxSize(n int) Option          { return func(c *config) { c.outboxSize = n } }
func WithOutboxDeadline(d time.Duration) Option {
	return func(c *config) { c.outboxDeadline = d }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *config) { c.logger = l }
}

func WithValidator(v Validator) Option { return func(c *config) { c.validator = v } }
func WithCodec(c2 Codec) Option        { return func(c *config) { c.codec = c2 } }

// App is the top-level SocketAPI application: an endpoint registry plus
// the subscription engine, the configured transport-independent codec and
// validator, and the mountable http.Handlers for the WebSocket route and
// the broadcast ingress.
//
// Grounded on seam.go's Router/NewRouter/Handler(opts...) builder idiom,
// generalized from a single RPC router to the action+channel+dependency
// registry required by §4.C.
type App struct {
	*Router // embeds the same AddAction/AddChannel/AddDependency surface

	cfg       config
	engine    *subscriptionEngine
	client    *broadcastClient
	codec     Codec
	validator Validator
	logger    zerolog.Logger
}

// NewApp constructs an App with the given options applied over the
// defaults in §6.3.
func NewApp(opts ...Option) *App {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	app := &App{
		Router:    NewRouter(),
		cfg:       cfg,
		engine:    newSubscriptionEngine(),
		codec:     cfg.codec,
		validator: cfg.validator,
		logger:    cfg.logger,
	}
	app.client = newBroadcastClient(app)
	return app
}

// IncludeRouter merges r's tables into the app's registry (§6.4) and
// rebinds every channel handle r produced so calls made through handles
// captured before inclusion keep working afterward (§12, modeled on
// router.py's FuncRef.set()).
func (a *App) IncludeRouter(r *Router) error {
	if err := a.Router.reg.include(r.reg); err != nil {
		return err
	}
	for _, h := range r.channelHandles {
		if desc, ok := a.Router.reg.channels[h.raw().name]; ok {
			h.bind(desc, a.client)
		}
	}
	return nil
}

// AddAction registers a typed action handle directly on the app.
func (a *App) AddAction(h registrant) error {
	_, err := a.Router.reg.addAction(h.raw())
	if err != nil {
		return err
	}
	h.bind(a.Router.reg.actions[h.raw().name], a.client)
	return nil
}

// AddChannel registers a typed channel handle directly on the app and
// binds it so ChannelHandle.Call works immediately afterward.
func (a *App) AddChannel(h registrant) error {
	desc, err := a.Router.reg.addChannel(h.raw())
	if err != nil {
		return err
	}
	h.bind(desc, a.client)
	return nil
}

// AddDependency registers a typed dependency handle directly on the app.
func (a *App) AddDependency(h registrant) error {
	_, err := a.Router.reg.addDependency(h.raw())
	return err
}

// BroadcastPath returns the configured path of the broadcast ingress, for
// embedders mounting App's handlers onto their own router (mount/chi,
// mount/gin) rather than using Handler or ListenAndServe directly.
func (a *App) BroadcastPath() string { return a.cfg.broadcastPath }

// WebSocketHandler returns the mountable http.Handler that upgrades and
// serves the multiplexed WebSocket protocol (§4.E, §9's "mountable route
// objects against any compatible HTTP host").
func (a *App) WebSocketHandler() http.Handler {
	return http.HandlerFunc(a.serveWS)
}

// BroadcastHandler returns the mountable http.Handler for component F.
// Its path is configured separately (WithBroadcastPath); callers mount it
// at whatever path they choose, but App.Handler mounts it at
// cfg.broadcastPath.
func (a *App) BroadcastHandler() http.Handler {
	return http.HandlerFunc(a.serveIngress)
}

// Handler returns a single http.Handler serving both the WebSocket route
// at "/" and the broadcast ingress at the configured broadcast path —
// convenient for a standalone deployment; embedders typically mount
// WebSocketHandler and BroadcastHandler separately instead (§9).
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", a.WebSocketHandler())
	mux.Handle(a.cfg.broadcastPath, a.BroadcastHandler())
	return mux
}

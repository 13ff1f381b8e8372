package main

import (
	"os"

	"github.com/codingconcepts/env"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/golden-vcr/auth"
	"github.com/golden-vcr/server-common/entry"
	"github.com/golden-vcr/server-common/rmq"
	"github.com/golden-vcr/ttvinfo/internal/callback"
	"github.com/golden-vcr/ttvinfo/internal/channel"
	"github.com/golden-vcr/ttvinfo/internal/credentials"
	"github.com/golden-vcr/ttvinfo/internal/csrf"
	"github.com/golden-vcr/ttvinfo/internal/info"
	"github.com/golden-vcr/ttvinfo/internal/metrics"
	"github.com/golden-vcr/ttvinfo/internal/token"
	"github.com/golden-vcr/ttvinfo/internal/userauth"
)

type Config struct {
	BindAddr   string `env:"BIND_ADDR"`
	ListenPort uint16 `env:"LISTEN_PORT" default:"5010"`

	// Callback is the public base URL of this service, with a trailing slash: the
	// OAuth redirect_uri is formed by appending "ttv/auth"
	Callback        string `env:"TTV_CALLBACK" required:"true"`
	ClientId        string `env:"TTV_CLIENT_ID" required:"true"`
	ClientSecret    string `env:"TTV_CLIENT_SECRET" required:"true"`
	WebhookSecret   string `env:"TTV_SECRET" required:"true"`
	ChannelId       string `env:"TTV_CHANNEL" required:"true"`
	CredentialsPath string `env:"TTV_DB_PATH" default:"./TTVdb.json"`

	// AMQP is optional: if RMQ_HOST is not set, verified webhook events are only
	// logged
	RmqHost     string `env:"RMQ_HOST"`
	RmqPort     int    `env:"RMQ_PORT" default:"5672"`
	RmqVhost    string `env:"RMQ_VHOST" default:"/"`
	RmqUser     string `env:"RMQ_USER"`
	RmqPassword string `env:"RMQ_PASSWORD"`
	RmqExchange string `env:"RMQ_EXCHANGE" default:"ttv-webhooks"`

	AuthURL string `env:"AUTH_URL" default:"http://localhost:5002"`
}

func main() {
	app, ctx := entry.NewApplication("ttvinfo")
	defer app.Stop()

	// Parse config from environment variables
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		app.Fail("Failed to load .env file", err)
	}
	config := Config{}
	if err := env.Set(&config); err != nil {
		app.Fail("Failed to load config", err)
	}

	// Load any Twitch credentials that we've persisted from a prior run
	store, err := credentials.Open(config.CredentialsPath)
	if err != nil {
		app.Fail("Failed to open credentials store", err)
	}
	record := store.Get()
	app.Log().Info("Loaded Twitch credentials",
		"path", config.CredentialsPath,
		"hasToken", record.HasToken(),
		"hasRefresh", record.HasRefresh(),
	)

	// Register Prometheus metrics on a dedicated registry, served at GET /metrics
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	// If configured, connect to AMQP so that verified webhook events can be published
	// for other services to consume
	var publisher callback.Publisher
	if config.RmqHost != "" {
		amqpConn, err := amqp.Dial(rmq.FormatConnectionString(config.RmqHost, config.RmqPort, config.RmqVhost, config.RmqUser, config.RmqPassword))
		if err != nil {
			app.Fail("Failed to connect to AMQP server", err)
		}
		defer amqpConn.Close()
		amqpPublisher, err := callback.NewAMQPPublisher(amqpConn, config.RmqExchange)
		if err != nil {
			app.Fail("Failed to initialize AMQP publisher", err)
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
	} else {
		app.Log().Warn("RMQ_HOST is not set; webhook events will not be published")
	}

	// Initialize an auth client so we can require broadcaster-level access in order to
	// call the admin-only credential management endpoints
	authClient, err := auth.NewClient(ctx, config.AuthURL)
	if err != nil {
		app.Fail("Failed to initialize auth client", err)
	}

	// The token manager keeps a valid user access token on hand, refreshing it as
	// needed, and the channel info fetcher uses that token to query the Helix API
	redirectUri := userauth.RedirectURI(config.Callback)
	tokens := token.NewManager(store, config.ClientId, config.ClientSecret, redirectUri, app.Log(), m)
	fetcher := channel.NewFetcher(config.ChannelId, config.ClientId, tokens, m)

	// Start setting up our HTTP handlers, using gorilla/mux for routing
	r := mux.NewRouter()

	// POST /ttv/webhook accepts webhook events signed with our shared secret
	callbackServer := callback.NewServer(config.WebhookSecret, publisher, m)
	callbackServer.RegisterRoutes(r)

	// The broadcaster can GET /ttv/auth/start to initiate an OAuth code grant flow,
	// and the redirect_uri for that flow will send an authorization code back to
	// GET /ttv/auth
	state := csrf.NewState(clockwork.NewRealClock(), csrf.DefaultTTL)
	userauthServer := userauth.NewServer(config.Callback, config.ClientId, state, tokens, store)
	userauthServer.RegisterRoutes(r)
	userauthServer.RegisterAdminRoutes(authClient, r)

	// Anyone can GET /ttv/info to see the current stream title, game, and box art
	infoServer := info.NewServer(fetcher)
	infoServer.RegisterRoutes(r)

	r.Path("/metrics").Methods("GET").Handler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// Handle incoming HTTP connections until our top-level context is canceled, at
	// which point shut down cleanly
	entry.RunServer(ctx, app.Log(), r, config.BindAddr, config.ListenPort)
}

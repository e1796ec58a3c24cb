package main

import (
	"flag"

	"payform-backend/internal/components/chrono"
	"payform-backend/internal/components/telemetry"
	"payform-backend/lib/restyutil"
	"payform-backend/lib/scrapers/auctionsite"
	"payform-backend/lib/serviceutil"
	"payform-backend/lib/statement"
	"payform-backend/services/api"
	"payform-backend/services/paylink"
	"payform-backend/services/paymentform"
	"payform-backend/services/paymentform/db"
)

func main() {
	configPath := flag.String("config", "config.json5", "Path to the configuration file.")
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	cfg, err := readConfig(*configPath)
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	output := InitTelemetry(ctx, cfg.Telemetry, *verbose)

	clock, err := chrono.NewStandardImpl(cfg.AuctionSite.Timezone)
	if err != nil {
		serviceutil.Fatal("load timezone", err)
	}
	links, err := initLinks(cfg, clock, output)
	if err != nil {
		serviceutil.Fatal("init payment links", err)
	}

	database, err := cfg.Database.OpenDB(db.Schema)
	if err != nil {
		serviceutil.Fatal("open database", err)
	}
	defer database.Close()
	sealer, err := paymentform.NewSealer(cfg.Payments.EncryptionKey)
	if err != nil {
		serviceutil.Fatal("init sealer", err)
	}
	forms := paymentform.NewService(paymentform.Options{
		DB:     database,
		Links:  links,
		Sealer: sealer,
		Time:   clock,
		Tel:    telemetry.NewScopedAPI("paymentform", telemetry.SlogAPI{}),
	})

	router := api.NewRouter(api.Options{
		Links:         links,
		Forms:         forms,
		AllowedOrigin: cfg.Server.AllowedOrigin,
		Tel:           telemetry.NewScopedAPI("api", telemetry.SlogAPI{}),
	})
	serviceutil.StartHttpServer(ctx, cfg.Server.Port, router)
}

func initLinks(cfg Config, clock chrono.TimeAPI, output restyutil.InstrumentOutput) (paylink.Service, error) {
	// durations were checked by Validate
	timeout, _ := parseDuration("auction_site.timeout", cfg.AuctionSite.Timeout)
	staffTTL, _ := parseDuration("tokens.staff_token_ttl", cfg.Tokens.StaffTokenTTL)
	linkTTL, _ := parseDuration("tokens.payment_link_ttl", cfg.Tokens.PaymentLinkTTL)
	cacheTTL, _ := parseDuration("session_cache.ttl", cfg.SessionCache.TTL)

	tokens, err := paylink.NewTokens(paylink.TokenOptions{
		Secret:         cfg.Tokens.SigningSecret,
		StaffTokenTTL:  staffTTL,
		PaymentLinkTTL: linkTTL,
		Time:           clock,
	})
	if err != nil {
		return paylink.Service{}, err
	}
	notifier, err := paylink.NewSmtpNotifier(cfg.Smtp)
	if err != nil {
		return paylink.Service{}, err
	}

	site := auctionsite.NewSite(auctionsite.ClientOptions{
		BaseUrl:           cfg.AuctionSite.BaseUrl,
		Timeout:           timeout,
		RequestsPerSecond: cfg.AuctionSite.RequestsPerSecond,
		CloudflareBypass:  cfg.AuctionSite.CloudflareBypass,
		StatementPaths:    cfg.AuctionSite.StatementPaths,
		Output:            output,
		Tel:               telemetry.NewScopedAPI("auctionsite", telemetry.SlogAPI{}),
	})

	return paylink.NewService(paylink.Options{
		Site:      paylink.NewAuctionSite(site),
		Tokens:    tokens,
		Extractor: statement.NewExtractor(clock),
		Notifier:  notifier,

		PublicBaseUrl: cfg.Server.PublicBaseUrl,
		Admin: paylink.AdminCredentials{
			Username: cfg.AuctionSite.AdminUsername,
			Password: cfg.AuctionSite.AdminPassword,
		},
		Staff: cfg.Staff,

		SessionCacheSize: cfg.SessionCache.Size,
		SessionCacheTTL:  cacheTTL,

		Tel: telemetry.NewScopedAPI("paylink", telemetry.SlogAPI{}),
	})
}

package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"payment-gateway/internal/config"
	"payment-gateway/internal/db"
	"payment-gateway/internal/event"
	"payment-gateway/internal/gateway"
	"payment-gateway/internal/logging"
	"payment-gateway/internal/mdxi"
	"payment-gateway/internal/metrics"
	"payment-gateway/internal/secret"
	"payment-gateway/internal/server"
	"payment-gateway/internal/shop"
)

func main() {
	godotenv.Load()

	cfg := config.MustLoadConfig("./config")

	logger := logging.GetLogger(cfg.Logs)
	metrics.Setup(cfg.Metrics)

	connStr := db.GetConnStr(cfg.Database)
	db.RunMigrations(connStr, "./migrations")

	pool, err := db.GetPool(connStr)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	repo := db.NewTransactionRepository(pool)

	secrets, err := secret.NewProvider(cfg.Merchant.SecretKey, repo)
	if err != nil {
		log.Fatal(err)
	}

	gw, err := gateway.NewClient(gateway.Config{
		MerchantID:   cfg.Merchant.ID,
		SOAPPassword: cfg.Merchant.SOAPPassword,
		Test:         cfg.Merchant.Test,
		ProxyHost:    cfg.Proxy.Host,
		ProxyPort:    cfg.Proxy.Port,
		TimeoutMs:    cfg.Gateway.TimeoutMs,
	})
	if err != nil {
		log.Fatal(err)
	}

	builder := mdxi.NewBuilder(mdxi.Defaults{
		SuccessURL:      cfg.URLs.Success,
		ErrorURL:        cfg.URLs.Error,
		ConfirmationURL: cfg.URLs.Confirmation,
	})

	writer := event.NewWriter(cfg.Kafka)
	defer writer.Close()
	events := event.NewPublisher(writer, logger)

	oplog := logging.NewOperationLog(logger)
	debug := cfg.Merchant.Debug

	newShop := func(store shop.Store) *shop.Shop {
		return shop.New(gw, store, shop.NewBuilderFactory(builder, store), secrets, oplog, events, logger, debug)
	}

	engine := newShop(repo)
	start := func(params db.CheckoutParams) server.Checkout {
		return newShop(repo.Checkout(params, secrets))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /liveness", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	server.NewHandler(engine, start, logger).Register(mux)

	logger.Info("Starting server", "port", cfg.Server.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Server.Port, mux))
}

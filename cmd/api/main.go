package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"razorkart/handlers"
	"razorkart/internal/auth"
	"razorkart/internal/banners"
	"razorkart/internal/cart"
	"razorkart/internal/consul"
	"razorkart/internal/inquiries"
	"razorkart/internal/orders"
	"razorkart/internal/products"
	"razorkart/internal/store"
	"razorkart/internal/stores/kafka"
	"razorkart/internal/stores/postgres"
	"razorkart/internal/users"
	"razorkart/pkg/logkey"
)

func main() {
	setupSlog()

	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, relying on environment")
	}

	if err := startApp(); err != nil {
		slog.Error("service stopped", slog.String(logkey.ERROR, err.Error()))
		os.Exit(1)
	}
}

func startApp() error {
	privatePEM, err := os.ReadFile(getEnv("AUTH_PRIVATE_KEY_FILE", "private.pem"))
	if err != nil {
		return fmt.Errorf("reading private key: %w", err)
	}
	keys, err := auth.NewKeysFromPEM(privatePEM)
	if err != nil {
		return err
	}

	db, err := postgres.OpenDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.RunMigrations(db); err != nil {
		return err
	}
	slog.Info("migrations applied")

	recordStore, err := store.NewConf(db)
	if err != nil {
		return err
	}

	cartConf, err := cart.NewConf(recordStore)
	if err != nil {
		return err
	}
	userConf, err := users.NewConf(recordStore)
	if err != nil {
		return err
	}
	productConf, err := products.NewConf(recordStore)
	if err != nil {
		return err
	}
	orderConf, err := orders.NewConf(recordStore, cartConf)
	if err != nil {
		return err
	}
	inquiryConf, err := inquiries.NewConf(recordStore)
	if err != nil {
		return err
	}
	bannerConf, err := banners.NewConf(recordStore)
	if err != nil {
		return err
	}

	var kafkaConf *kafka.Conf
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		kafkaConf, err = kafka.NewConf(strings.Split(brokers, ","))
		if err != nil {
			return err
		}
		defer kafkaConf.Close()
		slog.Info("kafka producer ready", slog.String("Brokers", brokers))
	} else {
		slog.Warn("KAFKA_BROKERS not set, event publishing disabled")
	}

	port, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return fmt.Errorf("invalid APP_PORT: %w", err)
	}
	prefix := getEnv("SERVICE_ENDPOINT_PREFIX", "/v1")

	h := handlers.NewHandler(keys, userConf, productConf, orderConf, inquiryConf, bannerConf, cartConf, kafkaConf)
	api := http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handlers.API(prefix, keys, h),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	// Register with service discovery when an agent is configured.
	var deregister func()
	if os.Getenv("CONSUL_HTTP_ADDR") != "" {
		client, err := consul.NewClient()
		if err != nil {
			return err
		}
		serviceID, err := consul.RegisterService(client, "razorkart", getEnv("APP_HOST", "localhost"), port)
		if err != nil {
			return err
		}
		slog.Info("registered with consul", slog.String("ServiceID", serviceID))
		deregister = func() {
			if err := consul.DeregisterService(client, serviceID); err != nil {
				slog.Error("consul deregistration failed", slog.String(logkey.ERROR, err.Error()))
			}
		}
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("API listening", slog.Int("Port", port), slog.String("Prefix", prefix))
		serverErrors <- api.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		slog.Info("shutdown started", slog.String("Signal", sig.String()))
		if deregister != nil {
			deregister()
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := api.Shutdown(ctx); err != nil {
			if cerr := api.Close(); cerr != nil {
				return fmt.Errorf("could not stop server gracefully: %w", err)
			}
		}
	}

	return nil
}

func setupSlog() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
	})
	slog.SetDefault(slog.New(handler))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

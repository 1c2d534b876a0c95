package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"ham-practice/internal/app"
	"ham-practice/internal/config"
	"ham-practice/internal/domain"
	"ham-practice/internal/infra/memory"
	pgbanks "ham-practice/internal/infra/postgres"
	redisstore "ham-practice/internal/infra/redis"
	"ham-practice/internal/metrics"
	transport "ham-practice/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string, defaultPort string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Serve the bank provider API and websocket practice sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
	cmd.Flags().StringVar(port, "port", defaultPort, "port to listen on")
	return cmd
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	provider, closeProvider, err := openProvider(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeProvider()

	bankTTL := config.TTLDuration(cfg.Bank.CacheTTL, 0)
	var banks app.BankRepository
	if redisClient != nil {
		banks = redisstore.NewBankRepository(redisClient, provider, bankTTL)
	} else {
		banks = memory.NewBankRepository(provider, bankTTL)
	}

	var store app.KVStore
	if redisClient != nil {
		store = redisstore.NewKVStore(redisClient, "", config.TTLDuration(cfg.Redis.TTL, 0))
	} else {
		store = memory.NewKVStore()
	}
	wsHandler := transport.NewWSHandler(banks, store, engineOptions(cfg))

	r := chi.NewRouter()
	r.Use(middleware.RealIP, middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())
	r.Mount("/api", transport.NewProviderHandler(banks).Routes(cfg.Server.AllowedOrigins))
	r.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     r,
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting ham practice server on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openProvider picks the bank source: Postgres, then a JSON directory, then a
// remote provider, then the built-in samples.
func openProvider(ctx context.Context, cfg config.Config) (memory.BankProvider, func(), error) {
	switch {
	case cfg.Postgres.URL != "":
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return nil, nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("serving banks from postgres")
		return pgbanks.NewBankProvider(pool), pool.Close, nil
	case cfg.Provider.Dir != "":
		provider, err := memory.LoadDir(cfg.Provider.Dir)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("serving banks from %s", cfg.Provider.Dir)
		return provider, func() {}, nil
	case cfg.Provider.URL != "":
		log.Printf("proxying banks from %s", cfg.Provider.URL)
		return transport.NewProviderClient(cfg.Provider.URL, config.TTLDuration(cfg.Provider.Timeout, 15*time.Second)), func() {}, nil
	default:
		log.Printf("no bank source configured, serving samples")
		return memory.NewStaticBankProvider(sampleBanks(), nil), func() {}, nil
	}
}

// engineOptions turns the bank section into Engine options.
func engineOptions(cfg config.Config) app.Options {
	return app.Options{
		Quotas:      app.DefaultQuotas().Merge(cfg.Bank.Quotas),
		Fallback:    cfg.Bank.Fallback,
		DefaultBank: cfg.Bank.Default,
	}
}

// sampleBanks provides a minimal bank so a bare server is usable; configure Postgres
// or a bank directory in production.
func sampleBanks() map[string]domain.Bank {
	return map[string]domain.Bank{
		"a": {
			Source: "Sample Class A questions",
			Count:  3,
			Questions: []domain.Question{
				{
					ID:      "a-001",
					Prompt:  "Which unit measures frequency?",
					Options: map[string]string{"A": "Hertz", "B": "Ohm", "C": "Farad", "D": "Henry"},
					Answer:  "A",
				},
				{
					ID:      "a-002",
					Prompt:  "Which bands are HF amateur allocations?",
					Options: map[string]string{"A": "20 m", "B": "2 m", "C": "40 m", "D": "70 cm"},
					Answer:  "AC",
				},
				{
					ID:      "a-003",
					Prompt:  "What does SWR stand for?",
					Options: map[string]string{"A": "Signal wave ratio", "B": "Standing wave ratio", "C": "Short wave range", "D": "Station wire resistance"},
					Answer:  "B",
				},
			},
		},
	}
}

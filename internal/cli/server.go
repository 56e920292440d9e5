package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"campus-exam-service/internal/app"
	"campus-exam-service/internal/config"
	"campus-exam-service/internal/infra/blob"
	"campus-exam-service/internal/infra/bundb"
	"campus-exam-service/internal/infra/memory"
	pgloader "campus-exam-service/internal/infra/postgres"
	infraredis "campus-exam-service/internal/infra/redis"
	transport "campus-exam-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the exam server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// stores is the persistence wiring chosen by the database driver.
type stores struct {
	catalog   app.CatalogStore
	ledger    app.ResultLedger
	materials app.MaterialStore
	// loader backs the quiz cache; it reads from the same database as catalog.
	loader  memory.QuizLoader
	closers []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStores(ctx context.Context, cfg config.Config, log *logrus.Logger) (*stores, error) {
	if cfg.Database.Driver == "memory" {
		log.Warn("using in-memory storage; data is lost on restart")
		ledger := memory.NewResultLedger()
		catalog := memory.NewCatalogStore(ledger)
		return &stores{catalog: catalog, ledger: ledger, materials: memory.NewMaterialStore(), loader: catalog}, nil
	}

	driver := bundb.Driver(cfg.Database.Driver)
	db, err := bundb.Open(ctx, driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	group, err := bundb.Migrate(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if !group.IsZero() {
		log.WithField("group", group.String()).Info("migrations applied")
	}

	catalog := bundb.NewCatalogStore(db)
	s := &stores{
		catalog:   catalog,
		ledger:    bundb.NewResultLedger(db),
		materials: bundb.NewMaterialStore(db),
		loader:    catalog,
		closers:   []func(){func() { _ = db.Close() }},
	}

	if driver == bundb.DriverPostgres {
		pool, err := pgxpool.Connect(ctx, cfg.Database.DSN)
		if err != nil {
			s.close()
			return nil, err
		}
		s.loader = pgloader.NewQuizLoader(pool)
		s.closers = append(s.closers, pool.Close)
	}
	return s, nil
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := config.InitLogger(cfg.Log.Level, cfg.Log.Format)

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return err
		}
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)

	var (
		quizRepo  app.QuizRepository
		presence  app.FeedPresence
		publisher app.ResultPublisher
		relay     *infraredis.Relay
		leases    *infraredis.FeedPresence
	)
	if redisClient != nil {
		quizRepo = infraredis.NewQuizRepository(redisClient, st.loader, quizTTL)
		leases = infraredis.NewFeedPresence(redisClient, redisTTL, log.WithField("component", "feed_presence"))
		presence = leases
	} else {
		quizRepo = memory.NewQuizRepository(st.loader, quizTTL)
	}
	broadcaster := app.NewBroadcaster(presence)
	publisher = broadcaster
	if redisClient != nil {
		publisher = infraredis.NewResultPublisher(redisClient)
		relay = infraredis.NewRelay(redisClient, broadcaster, log.WithField("component", "relay"))
	}

	files, err := blob.NewFSStore(cfg.Storage.BasePath, cfg.Storage.PublicURL)
	if err != nil {
		return err
	}
	tokens, err := transport.NewTokens(cfg.Auth.Secret, cfg.Auth.Issuer, config.TTLDuration(cfg.Auth.TokenTTL, 8*time.Hour))
	if err != nil {
		return err
	}

	router := transport.NewRouter(transport.Deps{
		Exams:       app.NewExamService(st.catalog, quizRepo, st.ledger, publisher, broadcaster),
		Materials:   app.NewMaterialService(st.materials, files),
		Tokens:      tokens,
		Files:       files.Serve(),
		FilesPath:   cfg.Storage.PublicURL,
		CORSOrigins: cfg.CORS.Origins,
	})

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		// no WriteTimeout: result feeds are long-lived websockets
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithFields(logrus.Fields{"port": finalPort, "driver": cfg.Database.Driver}).Info("starting exam service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if relay != nil {
		g.Go(func() error {
			return relay.Run(gctx)
		})
		g.Go(func() error {
			return leases.Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

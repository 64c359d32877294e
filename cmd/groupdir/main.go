package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/segmentio/kafka-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	config "github.com/vskolike/groupdir/internal/config"
	groupApp "github.com/vskolike/groupdir/internal/group/application"
	groupDomain "github.com/vskolike/groupdir/internal/group/domain"
	groupEvents "github.com/vskolike/groupdir/internal/group/infra/inbound/events"
	groupHttp "github.com/vskolike/groupdir/internal/group/infra/inbound/http"
	groupClickHouse "github.com/vskolike/groupdir/internal/group/infra/outbound/analytics/clickhouse"
	groupCache "github.com/vskolike/groupdir/internal/group/infra/outbound/cache"
	groupMongo "github.com/vskolike/groupdir/internal/group/infra/outbound/db/mongodb"
	groupPostgres "github.com/vskolike/groupdir/internal/group/infra/outbound/db/postgre"
	groupSQLite "github.com/vskolike/groupdir/internal/group/infra/outbound/db/sqlite"
	outboxMongo "github.com/vskolike/groupdir/internal/infra/db/mongodb"
	"github.com/vskolike/groupdir/internal/infra/db/sqloutbox"
	infraEvents "github.com/vskolike/groupdir/internal/infra/events"
	infraRelayer "github.com/vskolike/groupdir/internal/infra/relayer"
	"github.com/vskolike/groupdir/pkg/logger"
	"github.com/vskolike/groupdir/pkg/metrics"
	sharedDomain "github.com/vskolike/groupdir/shared/domain"
	sharedBus "github.com/vskolike/groupdir/shared/platform/bus"
	sharedCache "github.com/vskolike/groupdir/shared/platform/cache"
)

// stores agrupa los repositorios del driver elegido y su cierre.
type stores struct {
	groups groupDomain.GroupRepository
	outbox sharedDomain.OutboxRepository
	close  func()
}

func openStores(ctx context.Context, cfg *config.Config, log *zap.Logger) (*stores, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, err
		}
		if err := groupPostgres.InitPostgres(db); err != nil {
			db.Close()
			return nil, err
		}
		log.Info("✅ Postgres conectado")
		return &stores{
			groups: groupPostgres.NewGroupRepoPostgres(db),
			outbox: sqloutbox.New(db, sqloutbox.Postgres, groupDomain.AggregateType),
			close:  func() { db.Close() },
		}, nil

	case config.DriverMongoDB:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, err
		}
		repo, err := groupMongo.NewGroupRepoMongoDB(ctx, client, cfg.MongoDB)
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		log.Info("✅ MongoDB conectado", zap.String("database", cfg.MongoDB))
		return &stores{
			groups: repo,
			outbox: outboxMongo.NewOutboxRepoMongoDB(client, cfg.MongoDB, groupDomain.AggregateType),
			close:  func() { _ = client.Disconnect(context.Background()) },
		}, nil

	default:
		db, err := sql.Open("sqlite", cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		// SQLite admite un único escritor
		db.SetMaxOpenConns(1)
		if err := groupSQLite.InitSQLite(db); err != nil {
			db.Close()
			return nil, err
		}
		log.Info("✅ SQLite abierto", zap.String("path", cfg.SQLitePath))
		return &stores{
			groups: groupSQLite.NewGroupRepoSQLite(db),
			outbox: sqloutbox.New(db, sqloutbox.SQLite, groupDomain.AggregateType),
			close:  func() { db.Close() },
		}, nil
	}
}

// ---------------- Main ----------------
func main() {
	if err := logger.Init(""); err != nil {
		panic(err)
	}
	log := logger.Logger()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}
	if err := logger.Init(cfg.LogLevel); err != nil {
		log.Fatal("invalid log level", zap.Error(err))
	}
	log = logger.Logger()
	defer log.Sync() // flush buffers al salir

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---------------- DB ----------------
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer st.close()

	// ---------------- Cache ----------------
	var cacheInstance sharedCache.Cache
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("⚠️ Redis no disponible, cache en memoria", zap.Error(err))
		memCache := groupCache.NewInMemoryCache(cfg.CacheTTL, 3*cfg.CacheTTL)
		defer memCache.Stop()
		cacheInstance = memCache
	} else {
		cacheInstance = groupCache.NewRedisGroupCache(rdb, cfg.CacheTTL)
		log.Info("✅ Redis conectado, cache habilitado")
	}
	defer rdb.Close()

	// --------------- Servicio --------------
	groupService := groupApp.NewGroupService(st.groups, cacheInstance, log)

	// --------------- Analítica --------------
	var analytics groupDomain.GroupAnalyticsRepository
	if cfg.ClickHouseAddr != "" {
		chDB, err := groupClickHouse.OpenClickHouse(cfg.ClickHouseAddr, cfg.ClickHouseDB, cfg.ClickHouseUser, cfg.ClickHousePassword)
		if err != nil {
			log.Warn("⚠️ ClickHouse no disponible, analítica deshabilitada", zap.Error(err))
		} else {
			defer chDB.Close()
			chRepo := groupClickHouse.NewGroupAnalyticsRepo(chDB)
			if err := chRepo.InitSchema(ctx); err != nil {
				log.Fatal("failed to initialize ClickHouse schema", zap.Error(err))
			}
			analytics = chRepo
			log.Info("✅ ClickHouse conectado")
		}
	}

	// ---------------- Events ---------------
	groupConsumer := groupEvents.NewGroupConsumer(groupService, analytics, log)
	publishers := make(map[string]sharedBus.EventPublisher)

	if cfg.UseKafka {
		log.Info("🚀 Usando Kafka como bus de eventos")

		groupWriter := &kafka.Writer{
			Addr:         kafka.TCP(cfg.KafkaBrokers...),
			Topic:        cfg.KafkaTopicGroup,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		}
		groupPublisher := infraEvents.NewKafkaPublisher(groupWriter, log)
		defer groupPublisher.Close()
		publishers[groupDomain.GroupTopic] = groupPublisher

		for _, topic := range []string{cfg.KafkaTopicGroup, cfg.KafkaTopicMembership} {
			reader := kafka.NewReader(kafka.ReaderConfig{
				Brokers:  cfg.KafkaBrokers,
				Topic:    topic,
				GroupID:  cfg.KafkaConsumerGroup,
				MinBytes: 10e3, // 10KB
				MaxBytes: 10e6, // 10MB
			})
			infraEvents.NewConsumerAdapter(reader, groupConsumer, log).Start(ctx)
		}
	} else {
		log.Info("⚡️ Usando bus de eventos en memoria (canales de Go)")

		groupBus := infraEvents.NewInMemoryEventBus(groupDomain.GroupTopic)
		publishers[groupDomain.GroupTopic] = groupBus

		log.Info("🎧 Iniciando listener en memoria para eventos de grupo")
		infraEvents.BackgroundConsumerChan(ctx, groupBus.Subscribe(100), groupConsumer, log)
	}

	// ------------ Outbox Worker ------------
	outboxWorker := infraRelayer.NewOutboxWorker(st.outbox, publishers, groupDomain.NewEventRegistry(), cfg.OutboxPeriod, cfg.OutboxLimit, log)
	go outboxWorker.Start(ctx)

	// ---------------- HTTP ----------------
	m := metrics.New("groupdir")
	groupHandler := groupHttp.NewGroupHandler(groupService, m, cfg.DefaultPageSize)

	router := gin.Default()
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	groupHttp.RegisterGroupRoutes(router, groupHandler)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "store": cfg.StoreDriver})
	})
	router.GET("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("🚀 Server running", zap.String("url", "http://localhost:"+cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("🛑 Apagando servidor")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}

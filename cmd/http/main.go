package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hilthontt/duelrooms/internal/domain"
	"github.com/hilthontt/duelrooms/internal/infrastructure/configs"
	"github.com/hilthontt/duelrooms/internal/infrastructure/events"
	"github.com/hilthontt/duelrooms/internal/infrastructure/logging"
	"github.com/hilthontt/duelrooms/internal/infrastructure/messaging"
	"github.com/hilthontt/duelrooms/internal/infrastructure/metrics"
	roomStore "github.com/hilthontt/duelrooms/internal/infrastructure/repository"
	"github.com/hilthontt/duelrooms/internal/infrastructure/tracing"
	"github.com/hilthontt/duelrooms/internal/infrastructure/ws"
	"github.com/hilthontt/duelrooms/internal/lobby"
	"github.com/hilthontt/duelrooms/internal/persistence/db"
	auditRepository "github.com/hilthontt/duelrooms/internal/persistence/repository"
	"github.com/hilthontt/duelrooms/internal/presentation/api"
	"github.com/hilthontt/duelrooms/internal/presentation/handler/health"
	"github.com/hilthontt/duelrooms/internal/presentation/handler/rooms"
	"golang.org/x/sync/errgroup"
)

type serverStats struct {
	engine *lobby.Engine
	hub    *ws.Hub
}

func (s serverStats) RoomCount() int   { return s.engine.RoomCount() }
func (s serverStats) Connections() int { return s.hub.Connections() }

func main() {
	configPath := configs.DetermineConfigPath()
	cfg, err := configs.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		FilePath: cfg.Logger.FilePath,
		Encoding: cfg.Logger.Encoding,
		Level:    cfg.Logger.Level,
		Logger:   cfg.Logger.Backend,
	})
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error(logging.General, logging.Shutdown, "server exited with error", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *configs.Config, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := tracing.InitTracer(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer shutdownTracer(context.Background())

	recorder := metrics.NewRecorder()
	observers := []lobby.Observer{recorder}

	var audit domain.RoomAuditRepository
	if cfg.Mongo.Enabled {
		client, err := db.NewMongoClient(ctx, cfg.Mongo, logger)
		if err != nil {
			return err
		}
		defer db.DisconnectMongo(context.Background(), client)

		audit = auditRepository.NewRoomAuditLogRepository(client.Database(cfg.Mongo.Database))
		if err := audit.EnsureIndexes(ctx); err != nil {
			logger.Warn(logging.MongoDB, logging.Startup, "failed to ensure audit indexes", map[logging.ExtraKey]any{
				logging.ErrorMessage: err.Error(),
			})
		}
	}

	var rabbitmq *messaging.RabbitMQ
	if cfg.RabbitMQ.Enabled {
		rabbitmq, err = messaging.NewRabbitMQ(cfg.RabbitMQ.URI, cfg.RabbitMQ.Exchange, logger)
		if err != nil {
			return err
		}
		defer rabbitmq.Close()

		logger.Info(logging.RabbitMQ, logging.Startup, "connected to rabbitmq", map[logging.ExtraKey]any{
			"exchange": cfg.RabbitMQ.Exchange,
		})
		observers = append(observers, events.NewRoomPublisher(rabbitmq, logger))
	} else if audit != nil {
		observers = append(observers, events.NewAuditRecorder(audit, logger))
	}

	hub := ws.NewHub(logger)
	engine := lobby.NewEngine(roomStore.NewRoomRepository(), hub,
		lobby.WithTTL(cfg.Rooms.TTL),
		lobby.WithLogger(logger),
		lobby.WithObservers(observers...),
	)
	sweeper := lobby.NewSweeper(engine, cfg.Rooms.SweepInterval, logger)

	roomHandler := rooms.NewHandler(engine, hub, audit, recorder, logger, rooms.Config{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Socket: ws.Options{
			SendBuffer:     cfg.WebSocket.SendBuffer,
			WriteWait:      cfg.WebSocket.WriteWait,
			PongWait:       cfg.WebSocket.PongWait,
			MaxMessageSize: cfg.WebSocket.MaxMessageSize,
		},
	})
	healthHandler := health.NewHandler(serverStats{engine: engine, hub: hub})

	app := api.NewApplication(cfg.HTTP, roomHandler, healthHandler, recorder, logger, audit != nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Run(gctx, app.Mount())
	})
	g.Go(func() error {
		return sweeper.Run(gctx)
	})
	if rabbitmq != nil {
		consumer := events.NewRoomConsumer(rabbitmq, audit, logger)
		g.Go(func() error {
			return consumer.Listen(gctx)
		})
	}

	return g.Wait()
}

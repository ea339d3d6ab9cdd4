package bootstrap

import (
	"context"

	"field-data-be/internal/config"
	"field-data-be/internal/controller"
	"field-data-be/internal/handler"
	"field-data-be/internal/pkg/logger"
	"field-data-be/internal/repository/memory"
	"field-data-be/internal/service"
	"field-data-be/internal/websocket"
	"field-data-be/pkg/capture"
	"field-data-be/pkg/capture/relay"
	"field-data-be/pkg/location"
	pktNats "field-data-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

const positionBuffer = 64

type Container struct {
	// Controllers
	ProjectController  controller.IProjectController
	RecordController   controller.IRecordController
	CaptureController  controller.ICaptureController
	LocationController controller.ILocationController
	ExportController   controller.IExportController
	NoticeController   controller.INoticeController

	// Background work, started by main
	ConsumerService service.IConsumerService
	WebSocketHub    *websocket.Hub
	Watcher         *location.Watcher
	PositionFeed    *location.ChanSource
	// GPSSource is nil unless NATS is configured.
	GPSSource location.Source

	StreamHandler *handler.StreamHandler
	Logger        logger.ILogger

	pubSub   *gochannel.GoChannel
	sessions *memory.CaptureSessionRepository
	natsConn *nats.Conn
	natsPub  *pktNats.Publisher
	rdb      *redis.Client
	wsLogger logger.ILogger
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Logging
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	wsLogger := logger.NewIsolatedLogger(cfg.App.WsLogFilePath)

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	publisherService := service.NewPublisherService(cfg.Events.Topic, pubSub)

	// 3. Infrastructure, all optional
	var natsConn *nats.Conn
	var natsPub *pktNats.Publisher
	var forwarder service.EventForwarder
	var gpsSource location.Source
	if cfg.App.NatsURL != "" {
		nc, err := pktNats.Connect(cfg.App.NatsURL)
		if err != nil {
			sysLogger.Warn("Bootstrap", "NATS unavailable, events stay local", map[string]interface{}{"error": err.Error()})
		} else {
			natsConn = nc
			if pub, err := pktNats.NewPublisher(nc, cfg.Events.Stream, sysLogger); err != nil {
				sysLogger.Warn("Bootstrap", "JetStream unavailable", map[string]interface{}{"error": err.Error()})
			} else {
				natsPub = pub
				forwarder = pub
			}
			gpsSource = pktNats.NewGPSSource(nc, cfg.Location.GPSSubject)
		}
	}

	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			sysLogger.Warn("Bootstrap", "Failed to parse Redis URL, using it as address", map[string]interface{}{"error": err.Error()})
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb = redis.NewClient(opt)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			sysLogger.Warn("Bootstrap", "Failed to connect to Redis", map[string]interface{}{"error": err.Error()})
		}
	}

	// 4. Feed and location
	wsHub := websocket.NewHub(rdb, cfg.App.FeedChannel, wsLogger)
	watcher := location.NewWatcher(sysLogger)
	positionFeed := location.NewChanSource(positionBuffer)

	// 5. Repositories
	records := memory.NewFieldRecordRepository()
	projects := memory.NewProjectRepository()
	devices := relay.NewDevices(cfg.Capture.FlushTimeout, wsLogger)
	sessions := memory.NewCaptureSessionRepository(cfg.Capture.SessionTTL, cfg.Capture.CleanupInterval, devices.Forget)

	// 6. Services
	consumerService := service.NewConsumerService(pubSub, cfg.Events.Topic, wsHub, forwarder, sysLogger)
	locationService := service.NewLocationService(watcher, positionFeed, publisherService)
	projectService := service.NewProjectService(projects, publisherService)
	recordService := service.NewRecordService(records, projects, watcher, publisherService)
	exportService := service.NewExportService(records, projects, publisherService, sysLogger, cfg.Export.DefaultScope)
	noticeService := service.NewNoticeService(sysLogger)
	captureService := service.NewCaptureService(
		sessions,
		devices,
		recordService,
		watcher,
		wsHub,
		publisherService,
		sysLogger,
		service.CaptureServiceConfig{
			Options: capture.Options{
				Facing:          capture.FacingMode(cfg.Capture.DefaultFacing),
				FrameInterval:   cfg.Capture.FrameInterval,
				FinalizeTimeout: cfg.Capture.FinalizeTimeout,
			},
		},
	)

	return &Container{
		ProjectController:  controller.NewProjectController(projectService),
		RecordController:   controller.NewRecordController(recordService),
		CaptureController:  controller.NewCaptureController(captureService),
		LocationController: controller.NewLocationController(locationService),
		ExportController:   controller.NewExportController(exportService),
		NoticeController:   controller.NewNoticeController(noticeService),

		ConsumerService: consumerService,
		WebSocketHub:    wsHub,
		Watcher:         watcher,
		PositionFeed:    positionFeed,
		GPSSource:       gpsSource,

		StreamHandler: handler.NewStreamHandler(wsHub, devices, captureService, locationService, wsLogger),
		Logger:        sysLogger,

		pubSub:   pubSub,
		sessions: sessions,
		natsConn: natsConn,
		natsPub:  natsPub,
		rdb:      rdb,
		wsLogger: wsLogger,
	}
}

// Close releases open capture sessions and every connection. Call it after
// the server and background work have stopped.
func (c *Container) Close() {
	c.sessions.Flush()
	c.PositionFeed.Close()
	if err := c.pubSub.Close(); err != nil {
		c.Logger.Warn("Bootstrap", "Failed to close event bus", map[string]interface{}{"error": err.Error()})
	}
	if c.natsPub != nil {
		c.natsPub.Close()
	} else if c.natsConn != nil {
		c.natsConn.Close()
	}
	if c.rdb != nil {
		_ = c.rdb.Close()
	}
	_ = c.wsLogger.Sync()
	_ = c.Logger.Sync()
}

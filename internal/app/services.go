package app

import (
	"gorm.io/gorm"

	dataagg "github.com/yungbote/materials-registry/internal/data/aggregates"
	"github.com/yungbote/materials-registry/internal/data/repos"
	"github.com/yungbote/materials-registry/internal/observability"
	"github.com/yungbote/materials-registry/internal/platform/gcp"
	"github.com/yungbote/materials-registry/internal/platform/logger"
	"github.com/yungbote/materials-registry/internal/realtime/bus"
	"github.com/yungbote/materials-registry/internal/services"
)

type Services struct {
	Attachments services.AttachmentService
	History     services.HistoryService
	Snapshots   *services.SnapshotQueue
	Materials   services.MaterialService
	Tags        services.TagService
}

func wireServices(
	db *gorm.DB,
	log *logger.Logger,
	cfg Config,
	set repos.Set,
	bucket gcp.BucketService,
	eventBus bus.Bus,
	metrics *observability.Metrics,
) Services {
	log.Info("Wiring services...")

	history := services.NewHistoryService(db, log, set, eventBus)
	aggregate := dataagg.NewMaterialAggregate(dataagg.MaterialAggregateDeps{
		Base: dataagg.BaseDeps{
			DB:       db,
			Log:      log,
			Observer: dataagg.MetricsObserver(metrics),
		},
		Materials:   set.Material,
		Links:       set.MaterialLink,
		Values:      set.CharacteristicValue,
		Attachments: set.FileAttachment,
		Snapshot:    history.BuildSnapshot,
	})

	attachments := services.NewAttachmentService(log, bucket, cfg.Attachments, metrics)
	snapshots := services.NewSnapshotQueue(log, history, cfg.Snapshots, metrics)

	return Services{
		Attachments: attachments,
		History:     history,
		Snapshots:   snapshots,
		Materials: services.NewMaterialService(
			db,
			log,
			set,
			aggregate,
			attachments,
			snapshots,
			services.MaterialServiceConfig{NameMinLength: cfg.NameMinLength},
		),
		Tags: services.NewTagService(db, log, set, history.BuildSnapshot, snapshots),
	}
}

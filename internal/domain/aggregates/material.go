package aggregates

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/materials-registry/internal/domain/characteristics"
	"github.com/yungbote/materials-registry/internal/domain/materials"
)

// MaterialAggregate owns the persisted state of one material: value rows,
// attachment rows, ordering, tag links and version. Each write method runs
// in its own transaction.
//
// Write method failures should return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeConflict, CodeInvariantViolation, CodeRetryable, CodeInternal.
type MaterialAggregate interface {
	// Reconcile atomically replaces the material's characteristic value set.
	// Attachment binaries must already be stored; removed binaries are purged
	// by the caller after commit.
	Reconcile(ctx context.Context, in ReconcileInput) (ReconcileResult, error)

	// Delete atomically removes the material, its values, attachment rows and links.
	// History records are kept.
	Delete(ctx context.Context, in DeleteMaterialInput) (DeleteMaterialResult, error)
}

// ResolvedValue is a normalized value ready to persist. File values are Files.
type ResolvedValue struct {
	CharacteristicID uuid.UUID
	Value            characteristics.Value
}

type ReconcileInput struct {
	MaterialID uuid.UUID
	// Create inserts the material; Name is only honored on create.
	Create      bool
	Name        string
	Description string
	// ExpectedVersion is compared with the stored version on update.
	ExpectedVersion int64
	ActorID         uuid.UUID

	TagIDs         []uuid.UUID
	SubmittedOrder []uuid.UUID
	Values         []ResolvedValue

	NewAttachments       []materials.FileAttachment
	RemovedAttachmentIDs []uuid.UUID
}

type ReconcileResult struct {
	Material                 materials.Material
	OrderedCharacteristicIDs []uuid.UUID
	RemovedAttachments       []materials.FileAttachment
	// Snapshot is the history record of the committed version, or nil when
	// no builder is configured or the build failed.
	Snapshot *materials.MaterialHistory
}

type DeleteMaterialInput struct {
	MaterialID      uuid.UUID
	ExpectedVersion int64
	ActorID         uuid.UUID
}

type DeleteMaterialResult struct {
	MaterialID  uuid.UUID
	Attachments []materials.FileAttachment
}

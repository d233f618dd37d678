package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/materials-registry/internal/domain/aggregates"
)

var codeStatus = map[domainagg.ErrorCode]int{
	domainagg.CodeValidation:         http.StatusBadRequest,
	domainagg.CodeNotFound:           http.StatusNotFound,
	domainagg.CodeConflict:           http.StatusConflict,
	domainagg.CodePreconditionFailed: http.StatusPreconditionFailed,
	domainagg.CodeResourceLimit:      http.StatusRequestEntityTooLarge,
	domainagg.CodeRetryable:          http.StatusServiceUnavailable,
	domainagg.CodeStorage:            http.StatusBadGateway,
	domainagg.CodeInvariantViolation: http.StatusInternalServerError,
	domainagg.CodeInternal:           http.StatusInternalServerError,
}

// Most specific first: ErrPersistence travels with conflict and retryable
// causes that carry their own sentinel.
var sentinelCodes = []struct {
	err  error
	code string
}{
	{domainagg.ErrNameTooShort, "name_too_short"},
	{domainagg.ErrNameImmutable, "name_immutable"},
	{domainagg.ErrNameTaken, "name_taken"},
	{domainagg.ErrUnknownCharacteristic, "unknown_characteristic"},
	{domainagg.ErrUnknownTag, "unknown_tag"},
	{domainagg.ErrInvalidValueShape, "invalid_value_shape"},
	{domainagg.ErrFileTooLarge, "file_too_large"},
	{domainagg.ErrBatchTooLarge, "batch_too_large"},
	{domainagg.ErrMaterialNotFound, "material_not_found"},
	{domainagg.ErrTagNotFound, "tag_not_found"},
	{domainagg.ErrHistoryNotFound, "history_not_found"},
	{domainagg.ErrVersionConflict, "version_conflict"},
	{domainagg.ErrStorageWriteFailed, "storage_write_failed"},
	{domainagg.ErrPersistence, "persistence_failed"},
}

// FromError maps a service error onto an HTTP status, a stable code and
// optional details.
func FromError(err error) *Problem {
	if err == nil {
		return nil
	}
	var p *Problem
	if errors.As(err, &p) {
		return p
	}

	status := http.StatusInternalServerError
	code := string(domainagg.CodeInternal)
	if c := domainagg.CodeOf(err); c != "" {
		code = string(c)
		if s, ok := codeStatus[c]; ok {
			status = s
		}
	}
	for _, sc := range sentinelCodes {
		if errors.Is(err, sc.err) {
			code = sc.code
			break
		}
	}
	return &Problem{Status: status, Code: code, Err: err, Details: details(err)}
}

func details(err error) any {
	var shape *domainagg.InvalidValueShapeError
	if errors.As(err, &shape) {
		out := gin.H{
			"characteristic_id": shape.CharacteristicID,
			"characteristic":    shape.CharacteristicName,
		}
		if shape.Shape != nil {
			out["type"] = shape.Shape.Type
			out["expected"] = shape.Shape.Expected
		}
		return out
	}
	var unknown *domainagg.UnknownIDsError
	if errors.As(err, &unknown) {
		return gin.H{"ids": unknown.IDs}
	}
	var tooLarge *domainagg.FileTooLargeError
	if errors.As(err, &tooLarge) {
		return gin.H{"limit": tooLarge.Limit, "files": tooLarge.Files}
	}
	var batch *domainagg.BatchTooLargeError
	if errors.As(err, &batch) {
		return gin.H{"limit": batch.Limit, "total": batch.Total}
	}
	return nil
}

// RespondAPIError writes the envelope for any error. Internal failures hide
// their message.
func RespondAPIError(c *gin.Context, err error) {
	p := FromError(err)
	if p == nil {
		RespondError(c, http.StatusInternalServerError, string(domainagg.CodeInternal), nil)
		return
	}
	msg := p.Error()
	if p.Status >= http.StatusInternalServerError && p.Status != http.StatusServiceUnavailable {
		msg = "internal error"
	}
	c.JSON(p.Status, ErrorEnvelope{Error: APIError{Message: msg, Code: p.Code, Details: p.Details}})
}

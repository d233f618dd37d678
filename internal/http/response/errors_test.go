package response

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagg "github.com/yungbote/materials-registry/internal/domain/aggregates"
	"github.com/yungbote/materials-registry/internal/domain/characteristics"
)

func TestFromError(t *testing.T) {
	charID := uuid.New()
	shape := &domainagg.InvalidValueShapeError{
		CharacteristicID:   charID,
		CharacteristicName: "density",
		Shape:              &characteristics.ShapeError{Type: characteristics.TypeNumber, Expected: "string", Reason: "bad"},
	}
	unknown := &domainagg.UnknownIDsError{Kind: domainagg.ErrUnknownTag, IDs: []uuid.UUID{charID}}

	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"shape", domainagg.NewError(domainagg.CodeValidation, "op", "bad", shape), http.StatusBadRequest, "invalid_value_shape"},
		{"unknown tag", domainagg.NewError(domainagg.CodeValidation, "op", "bad", unknown), http.StatusBadRequest, "unknown_tag"},
		{"name taken", domainagg.NewError(domainagg.CodeConflict, "op", "taken", domainagg.ErrNameTaken), http.StatusConflict, "name_taken"},
		{"retryable", domainagg.NewError(domainagg.CodeRetryable, "op", "busy", errors.Join(domainagg.ErrPersistence, errors.New("deadlock"))), http.StatusServiceUnavailable, "persistence_failed"},
		{"plain", fmt.Errorf("boom"), http.StatusInternalServerError, "internal"},
		{"api", &Problem{Status: http.StatusTeapot, Code: "teapot"}, http.StatusTeapot, "teapot"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FromError(tc.err)
			if got.Status != tc.status || got.Code != tc.code {
				t.Fatalf("want=%d/%s got=%d/%s", tc.status, tc.code, got.Status, got.Code)
			}
		})
	}

	got := FromError(domainagg.NewError(domainagg.CodeValidation, "op", "bad", shape))
	d, ok := got.Details.(gin.H)
	if !ok || d["characteristic_id"] != charID || d["type"] != characteristics.TypeNumber {
		t.Fatalf("shape details: got=%#v", got.Details)
	}
	if FromError(nil) != nil {
		t.Fatalf("nil error should map to nil")
	}
}

package materials

import (
	"reflect"
	"testing"

	"github.com/google/uuid"
)

func TestReconcileOrder(t *testing.T) {
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	cases := []struct {
		name      string
		submitted []uuid.UUID
		valued    []uuid.UUID
		want      []uuid.UUID
	}{
		{"same set keeps submitted order", []uuid.UUID{c, a, b}, []uuid.UUID{a, b, c}, []uuid.UUID{c, a, b}},
		{"stale id dropped", []uuid.UUID{a, d, b}, []uuid.UUID{a, b}, []uuid.UUID{a, b}},
		{"unordered value appended", []uuid.UUID{b}, []uuid.UUID{a, b, c}, []uuid.UUID{b, a, c}},
		{"duplicates collapsed", []uuid.UUID{a, a, b, a}, []uuid.UUID{b, a}, []uuid.UUID{a, b}},
		{"no values", []uuid.UUID{a, b}, nil, []uuid.UUID{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ReconcileOrder(tc.submitted, tc.valued)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("ReconcileOrder: want=%v got=%v", tc.want, got)
			}
			if !SameOrderSet(got, tc.valued) {
				t.Fatalf("SameOrderSet(%v, %v) = false", got, tc.valued)
			}
		})
	}
}

func TestSameOrderSetRejectsMismatch(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	if SameOrderSet([]uuid.UUID{a}, []uuid.UUID{a, b}) {
		t.Fatalf("missing id accepted")
	}
	if SameOrderSet([]uuid.UUID{a, a}, []uuid.UUID{a}) {
		t.Fatalf("duplicate id accepted")
	}
}

func TestAttachmentPathScopedToCharacteristic(t *testing.T) {
	m, c, f := uuid.New(), uuid.New(), uuid.New()
	got := AttachmentPath(m, c, f, "Report.PDF")
	want := "materials/" + m.String() + "/characteristics/" + c.String() + "/" + f.String() + ".pdf"
	if got != want {
		t.Fatalf("AttachmentPath: want=%q got=%q", want, got)
	}
}

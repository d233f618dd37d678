package logger

import (
	"strings"
	"testing"
)

func TestRedactorMasksSecretsAndHashesActors(t *testing.T) {
	r := &redactor{enabled: true}

	out := r.apply([]interface{}{
		"db_password", "hunter2",
		"actor_id", "7f1e0b7c-0000-0000-0000-000000000001",
		"material_id", "m-1",
		"payload", map[string]interface{}{"api_key": "k", "name": "steel"},
	})
	if len(out) != 8 {
		t.Fatalf("len: want=8 got=%d", len(out))
	}
	if out[1] != redacted {
		t.Fatalf("password: want=%s got=%v", redacted, out[1])
	}
	hashed, _ := out[3].(string)
	if !strings.HasPrefix(hashed, "hash:") || len(hashed) != len("hash:")+12 {
		t.Fatalf("actor_id: unexpected hash %q", hashed)
	}
	if out[5] != "m-1" {
		t.Fatalf("material_id: want passthrough got=%v", out[5])
	}
	nested, _ := out[7].(map[string]interface{})
	if nested["api_key"] != redacted || nested["name"] != "steel" {
		t.Fatalf("nested: got=%v", nested)
	}
}

func TestRedactorSaltChangesHash(t *testing.T) {
	a := (&redactor{enabled: true}).hash("actor")
	b := (&redactor{enabled: true, salt: "pepper"}).hash("actor")
	if a == b {
		t.Fatalf("salted hash should differ: %s", a)
	}
}

func TestRedactorKeepsDanglingKeyAndInputSlice(t *testing.T) {
	r := &redactor{enabled: true}
	in := []interface{}{"token", "abc", "orphan"}
	out := r.apply(in)
	if len(out) != 3 || out[2] != "orphan" || out[1] != redacted {
		t.Fatalf("unexpected output: %#v", out)
	}
	if in[1] != "abc" {
		t.Fatalf("input slice was modified")
	}
}

func TestRedactorDisabled(t *testing.T) {
	t.Setenv("LOG_REDACTION_ENABLED", "off")
	r := redactorFromEnv()
	out := r.apply([]interface{}{"password", "x"})
	if out[1] != "x" {
		t.Fatalf("disabled redactor should pass through, got=%v", out[1])
	}
}

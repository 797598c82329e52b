package settings

import (
	"encoding/json"
	"testing"
	"time"
)

func TestIntValueFallbacks(t *testing.T) {
	StoreDBConfig(time.Now(), map[string]json.RawMessage{
		"num":    json.RawMessage(`7`),
		"str":    json.RawMessage(`"12"`),
		"bad":    json.RawMessage(`"abc"`),
		"zero":   json.RawMessage(`0`),
		"isnull": nil,
	})
	t.Cleanup(func() { StoreDBConfig(time.Time{}, nil) })

	if got := IntValue("num", 99); got != 7 {
		t.Fatalf("num = %d, want 7", got)
	}
	if got := IntValue("str", 99); got != 12 {
		t.Fatalf("str = %d, want 12", got)
	}
	if got := IntValue("bad", 99); got != 99 {
		t.Fatalf("bad = %d, want fallback", got)
	}
	if got := IntValue("zero", 99); got != 99 {
		t.Fatalf("zero = %d, want fallback", got)
	}
	if got := IntValue("missing", 99); got != 99 {
		t.Fatalf("missing = %d, want fallback", got)
	}
	if got := IntValue("isnull", 99); got != 99 {
		t.Fatalf("isnull = %d, want fallback", got)
	}
}

package db

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestPoolStatsJSONShape(t *testing.T) {
	b, err := json.Marshal(poolStats{TotalConns: 4, IdleConns: 2, AcquiredConns: 2, MaxConns: 10})
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"total_conns", "idle_conns", "acquired_conns", "max_conns"} {
		if !strings.Contains(string(b), `"`+key+`"`) {
			t.Errorf("expected %s in health payload, got %s", key, b)
		}
	}
}

package cache

import (
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestReleaseFailedLogs(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	if releaseFailed("session:s1:lock", nil) || releaseFailed("session:s1:lock", redis.Nil) {
		t.Fatalf("clean release reported as failed")
	}
	if len(hook.AllEntries()) != 0 {
		t.Fatalf("clean release logged %d entries", len(hook.AllEntries()))
	}

	if !releaseFailed("session:s1:lock", errors.New("connection reset")) {
		t.Fatalf("failed release not reported")
	}
	entry := hook.LastEntry()
	if entry == nil || entry.Data["key"] != "session:s1:lock" {
		t.Fatalf("log entry = %+v", entry)
	}
}

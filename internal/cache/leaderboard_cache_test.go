package cache

import (
	"sort"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// zrange orders members the way a Redis ZSET does for ZRANGE
func zrange(zs []redis.Z) []redis.Z {
	sort.Slice(zs, func(i, j int) bool {
		if zs[i].Score != zs[j].Score {
			return zs[i].Score < zs[j].Score
		}
		return zs[i].Member.(string) < zs[j].Member.(string)
	})
	return zs
}

func TestLeaderboardTieBreaksOnEarliestSubmission(t *testing.T) {
	base := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	entries := []struct {
		id     string
		score  float64
		offset time.Duration
	}{
		{"z-late", 80, 5 * time.Minute},
		{"a-early", 80, time.Minute},
		{"m-top", 92.5, 10 * time.Minute},
		{"b-same-time", 80, 5 * time.Minute},
		{"c-low", 40, 0},
	}

	var zs []redis.Z
	for _, e := range entries {
		zs = append(zs, redis.Z{Score: encodeScore(e.score), Member: encodeMember(e.id, base.Add(e.offset))})
	}
	got := decodeEntries(zrange(zs))

	want := []string{"m-top", "a-early", "b-same-time", "z-late", "c-low"}
	for i, id := range want {
		if got[i].SessionID != id || got[i].Rank != i+1 {
			t.Fatalf("entry %d = %+v, want %s rank %d", i, got[i], id, i+1)
		}
	}
	if got[0].Score != 92.5 || got[1].Score != 80 {
		t.Fatalf("scores = %.2f, %.2f, want 92.50, 80.00", got[0].Score, got[1].Score)
	}
}

func TestDecodeMember(t *testing.T) {
	at := time.Date(2026, 5, 4, 9, 0, 0, 123e6, time.UTC)
	id, got := decodeMember(encodeMember("id:with:colons", at))
	if id != "id:with:colons" || !got.Equal(at) {
		t.Fatalf("decodeMember = %q %v", id, got)
	}
	if id, _ := decodeMember("legacy"); id != "legacy" {
		t.Fatalf("decodeMember(legacy) = %q", id)
	}
}

func TestLeaderboardMembersKey(t *testing.T) {
	if got := (&leaderboardCache{}).membersKey("backend"); got != "profile:backend:lb:members" {
		t.Fatalf("members key = %q", got)
	}
}

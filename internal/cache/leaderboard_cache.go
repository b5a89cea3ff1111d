package cache

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"decihire/internal/model"

	"github.com/redis/go-redis/v9"
)

// LeaderboardCache handles Redis ZSET operations for the per-profile leaderboard.
// Order matches the result ranking: score desc, submittedAt asc, session id asc.
type LeaderboardCache interface {
	UpdateScore(ctx context.Context, profile, sessionID string, score float64, submittedAt time.Time) error
	GetTop(ctx context.Context, profile string, limit int) ([]model.LeaderboardEntry, error)
	GetRank(ctx context.Context, profile, sessionID string) (int64, error)
}

// Entries are read with ZRANGE (ascending), so the stored score is the negated
// score in hundredths and equal scores fall back to member order. Members are
// "<submittedAt ms, 13 digits>:<session id>", so that order is earliest
// submission first, then session id.
//
// The members hash maps session id to its current member, for rank lookups
// and for moving a rescored session.
var upsertScript = redis.NewScript(`
local old = redis.call("HGET", KEYS[2], ARGV[1])
if old and old ~= ARGV[2] then
	redis.call("ZREM", KEYS[1], old)
end
redis.call("ZADD", KEYS[1], ARGV[3], ARGV[2])
redis.call("HSET", KEYS[2], ARGV[1], ARGV[2])
return 1
`)

type leaderboardCache struct {
	client *redis.Client
}

// NewLeaderboardCache creates a new leaderboard cache
func NewLeaderboardCache(client *redis.Client) LeaderboardCache {
	return &leaderboardCache{
		client: client,
	}
}

func (c *leaderboardCache) key(profile string) string {
	return fmt.Sprintf("profile:%s:lb", profile)
}

func (c *leaderboardCache) membersKey(profile string) string {
	return fmt.Sprintf("profile:%s:lb:members", profile)
}

// UpdateScore replaces the session's entry, so rescoring moves it instead of duplicating
func (c *leaderboardCache) UpdateScore(ctx context.Context, profile, sessionID string, score float64, submittedAt time.Time) error {
	err := upsertScript.Run(ctx, c.client,
		[]string{c.key(profile), c.membersKey(profile)},
		sessionID, encodeMember(sessionID, submittedAt), encodeScore(score),
	).Err()
	return cacheErr("update leaderboard", err)
}

func (c *leaderboardCache) GetTop(ctx context.Context, profile string, limit int) ([]model.LeaderboardEntry, error) {
	results, err := c.client.ZRangeWithScores(ctx, c.key(profile), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, cacheErr("read leaderboard", err)
	}
	return decodeEntries(results), nil
}

func (c *leaderboardCache) GetRank(ctx context.Context, profile, sessionID string) (int64, error) {
	member, err := c.client.HGet(ctx, c.membersKey(profile), sessionID).Result()
	if err == redis.Nil {
		return -1, nil
	}
	if err != nil {
		return -1, cacheErr("read rank", err)
	}

	rank, err := c.client.ZRank(ctx, c.key(profile), member).Result()
	if err == redis.Nil {
		return -1, nil
	}
	if err != nil {
		return -1, cacheErr("read rank", err)
	}
	return rank + 1, nil // 1-indexed
}

func encodeScore(score float64) float64 {
	return -math.Round(score * 100)
}

func decodeScore(stored float64) float64 {
	return -stored / 100
}

func encodeMember(sessionID string, submittedAt time.Time) string {
	return fmt.Sprintf("%013d:%s", submittedAt.UnixMilli(), sessionID)
}

func decodeMember(member string) (sessionID string, submittedAt time.Time) {
	ms, id, ok := strings.Cut(member, ":")
	if !ok {
		return member, time.Time{}
	}
	n, err := strconv.ParseInt(ms, 10, 64)
	if err != nil {
		return member, time.Time{}
	}
	return id, time.UnixMilli(n).UTC()
}

func decodeEntries(zs []redis.Z) []model.LeaderboardEntry {
	entries := make([]model.LeaderboardEntry, len(zs))
	for i, z := range zs {
		member, _ := z.Member.(string)
		id, _ := decodeMember(member)
		entries[i] = model.LeaderboardEntry{
			SessionID: id,
			Score:     decodeScore(z.Score),
			Rank:      i + 1,
		}
	}
	return entries
}

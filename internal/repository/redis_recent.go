package repository

import (
	"context"
	"encoding/json"

	"github.com/auditgate/auditgate/internal/model"
)

// RecentCache keeps the newest request-log entries in a capped redis list
// so the read API can serve a recent view without touching Postgres, and
// still answer when Postgres is down.
type RecentCache struct {
	client  *RedisClient
	listKey string
	listMax int
}

func NewRecentCache(client *RedisClient, listKey string, listMax int) *RecentCache {
	if listKey == "" {
		listKey = "request_logs:recent"
	}
	if listMax <= 0 {
		listMax = 10000
	}
	return &RecentCache{
		client:  client,
		listKey: listKey,
		listMax: listMax,
	}
}

func (c *RecentCache) Push(ctx context.Context, entry *model.RequestLog) error {
	if entry == nil {
		return nil
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	pipe := c.client.Client.Pipeline()
	pipe.LPush(ctx, c.listKey, payload)
	pipe.LTrim(ctx, c.listKey, 0, int64(c.listMax-1))
	_, err = pipe.Exec(ctx)
	return err
}

func (c *RecentCache) List(ctx context.Context, filter ListFilter) ([]*model.RequestLog, error) {
	filter.normalize()
	fetch := c.fetchWindow(filter.Limit)

	items, err := c.client.Client.LRange(ctx, c.listKey, 0, int64(fetch-1)).Result()
	if err != nil {
		return nil, err
	}
	return filterRecent(items, filter), nil
}

// fetchWindow over-fetches so post-filtering can still fill the limit,
// bounded by the list cap.
func (c *RecentCache) fetchWindow(limit int) int {
	fetch := limit * 5
	if fetch < 100 {
		fetch = 100
	}
	if fetch > c.listMax {
		fetch = c.listMax
	}
	return fetch
}

func filterRecent(items []string, filter ListFilter) []*model.RequestLog {
	results := make([]*model.RequestLog, 0, filter.Limit)
	for _, raw := range items {
		var entry model.RequestLog
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}
		if filter.Module != "" && entry.Module != filter.Module {
			continue
		}
		if filter.From != nil && entry.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && entry.CreatedAt.After(*filter.To) {
			continue
		}
		results = append(results, &entry)
		if len(results) >= filter.Limit {
			break
		}
	}
	return results
}

package casedb

import (
	"fmt"
)

// Stats summarizes the artifact counts in a case database.
type Stats struct {
	Contacts     int            `json:"contacts"`
	Messages     int            `json:"messages"`
	CallLogs     int            `json:"call_logs"`
	GeoPoints    int            `json:"geo_points"`
	GeoRoutes    int            `json:"geo_routes"`
	MessageKinds map[string]int `json:"message_kinds"`
}

// ReadStats counts the artifacts currently stored.
func (c *DB) ReadStats() (*Stats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := &Stats{MessageKinds: make(map[string]int)}
	counts := []struct {
		table string
		dest  *int
	}{
		{"contacts", &stats.Contacts},
		{"messages", &stats.Messages},
		{"call_logs", &stats.CallLogs},
		{"geo_points", &stats.GeoPoints},
		{"geo_routes", &stats.GeoRoutes},
	}
	for _, cnt := range counts {
		if err := c.db.QueryRow("SELECT COUNT(*) FROM " + cnt.table).Scan(cnt.dest); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", cnt.table, err)
		}
	}

	rows, err := c.db.Query("SELECT kind, COUNT(*) FROM messages GROUP BY kind ORDER BY kind")
	if err != nil {
		return nil, fmt.Errorf("failed to count message kinds: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("failed to scan message kind: %w", err)
		}
		stats.MessageKinds[kind] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message kinds: %w", err)
	}
	return stats, nil
}

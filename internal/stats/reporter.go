// Package stats periodically reports realtime gateway occupancy.
package stats

import (
	"context"
	"log"
	"strconv"

	"github.com/robfig/cron/v3"

	"github.com/Jordan-Tam/mini-wiki-sub000/internal/cache"
	"github.com/Jordan-Tam/mini-wiki-sub000/internal/realtime"
)

// Reporter logs room occupancy on a schedule and mirrors it into the cache
// so operators can read it without touching the process.
type Reporter struct {
	cron     *cron.Cron
	registry *realtime.Registry
	cache    *cache.Cache
}

// NewReporter creates a reporter over the given registry. The cache may be
// nil; occupancy is then only logged.
func NewReporter(registry *realtime.Registry, c *cache.Cache) *Reporter {
	return &Reporter{
		cron:     cron.New(),
		registry: registry,
		cache:    c,
	}
}

// Start begins the reporting schedule.
func (r *Reporter) Start() {
	log.Println("Starting stats reporter...")

	r.cron.AddFunc("@every 1m", func() {
		r.report()
	})

	r.cron.Start()
	log.Println("Stats reporter started")
}

// Stop gracefully shuts down the reporter, waiting for a running report to
// finish.
func (r *Reporter) Stop() {
	log.Println("Stopping stats reporter...")
	ctx := r.cron.Stop()
	<-ctx.Done()
	log.Println("Stats reporter stopped")
}

// Report runs one report immediately. Exposed for tests and for the
// shutdown path.
func (r *Reporter) Report() {
	r.report()
}

func (r *Reporter) report() {
	rooms := r.registry.Rooms()

	connections := 0
	for _, members := range rooms {
		connections += members
	}
	log.Printf("Gateway occupancy: %d rooms, %d connections", len(rooms), connections)

	if r.cache == nil {
		return
	}

	ctx := context.Background()
	for room, members := range rooms {
		key := "rooms:" + room + ":occupancy"
		if err := r.cache.Set(ctx, key, strconv.Itoa(members)); err != nil {
			log.Printf("Failed to record occupancy for room %s: %v", room, err)
			return
		}
	}
}

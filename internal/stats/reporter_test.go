package stats_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Jordan-Tam/mini-wiki-sub000/internal/realtime"
	"github.com/Jordan-Tam/mini-wiki-sub000/internal/stats"
)

type member struct{}

func (member) SendText(string) error { return nil }
func (member) Open() bool            { return true }

func TestReporterWithoutCache(t *testing.T) {
	registry := realtime.NewRegistry()
	_, err := registry.Join("42", "alice", member{}, true)
	require.NoError(t, err)

	reporter := stats.NewReporter(registry, nil)

	// Must not panic with the cache disabled.
	reporter.Report()
}

func TestReporterLifecycle(t *testing.T) {
	reporter := stats.NewReporter(realtime.NewRegistry(), nil)
	reporter.Start()
	reporter.Stop()
}

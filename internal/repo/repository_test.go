package repo_test

import (
	"testing"

	"github.com/hamed0406/healthwatch/internal/repo"
	"github.com/hamed0406/healthwatch/internal/repo/memory"
	pg "github.com/hamed0406/healthwatch/internal/repo/postgres"
)

// Compile-time interface satisfaction checks.
// Using external test package avoids import cycle.
func TestInterfaceSatisfaction(t *testing.T) {
	var _ repo.SampleStore = memory.New()
	var _ repo.AlertStore = memory.New()
	var _ repo.MetadataStore = memory.New()

	// Postgres store types compile against the interfaces, too.
	var _ repo.SampleStore = (*pg.Store)(nil)
	var _ repo.AlertStore = (*pg.Store)(nil)
	var _ repo.MetadataStore = (*pg.Store)(nil)
}

// Package runtime wires every component spec.md §4 describes into one
// running process, the way the teacher's internal/models/embedding package
// reaches for a package-level dig container (runtime.GetContainer().Invoke)
// instead of threading every dependency through constructor arguments by
// hand.
package runtime

import (
	"sync"

	"go.uber.org/dig"

	"github.com/wk-archive/meetingmind/internal/config"
)

var (
	containerOnce sync.Once
	container     *dig.Container
)

// GetContainer returns the process-wide dig container, building it on
// first use.
func GetContainer() *dig.Container {
	containerOnce.Do(func() {
		container = dig.New()
	})
	return container
}

// Build registers cfg and the fully wired App in the container. Call it
// once at process startup before any GetContainer().Invoke(...) call.
func Build(cfg *config.Config) error {
	c := GetContainer()
	if err := c.Provide(func() *config.Config { return cfg }); err != nil {
		return err
	}
	return c.Provide(newApp)
}

package di

import (
	"go.uber.org/dig"

	"github.com/itx-nasir/phish-guard/internal/adapters/upload"
	"github.com/itx-nasir/phish-guard/internal/config"
	"github.com/itx-nasir/phish-guard/internal/core"
	"github.com/itx-nasir/phish-guard/internal/factory"
	"github.com/itx-nasir/phish-guard/internal/logging"
	"github.com/itx-nasir/phish-guard/internal/ports"
	"github.com/itx-nasir/phish-guard/internal/server"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewAnalyzerFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewHistoryFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewQueueFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewUploadFactory); err != nil {
		return nil, err
	}

	// Register analyzer service
	if err := container.Provide(func(f *factory.AnalyzerFactory) *core.AnalyzerService {
		return f.CreateAnalyzerService()
	}); err != nil {
		return nil, err
	}

	// Register history repository
	if err := container.Provide(func(f *factory.HistoryFactory) (ports.HistoryRepository, error) {
		return f.CreateHistoryRepository()
	}); err != nil {
		return nil, err
	}

	// Register dispatcher
	if err := container.Provide(func(f *factory.QueueFactory) (ports.Dispatcher, error) {
		return f.CreateDispatcher()
	}); err != nil {
		return nil, err
	}

	// Register upload store
	if err := container.Provide(func(f *factory.UploadFactory) (*upload.Store, error) {
		return f.CreateUploadStore()
	}); err != nil {
		return nil, err
	}

	// Register HTTP server
	if err := container.Provide(server.NewServer); err != nil {
		return nil, err
	}

	return container, nil
}

package factory

import (
	"fmt"

	"github.com/itx-nasir/phish-guard/internal/adapters/upload"
	"github.com/itx-nasir/phish-guard/internal/config"
	"go.uber.org/zap"
)

// UploadFactory creates the upload store from configuration
type UploadFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewUploadFactory creates a new upload factory
func NewUploadFactory(cfg *config.Config, logger *zap.Logger) *UploadFactory {
	return &UploadFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateUploadStore creates an upload store based on the configuration
func (f *UploadFactory) CreateUploadStore() (*upload.Store, error) {
	maxAge, err := f.cfg.GetDuration("upload.max_age")
	if err != nil {
		return nil, fmt.Errorf("invalid upload max age: %w", err)
	}
	cleanupFreq, err := f.cfg.GetDuration("upload.cleanup_frequency")
	if err != nil {
		return nil, fmt.Errorf("invalid upload cleanup frequency: %w", err)
	}

	return upload.NewStore(
		f.cfg.GetString("server.upload_dir"),
		f.cfg.GetInt64("analysis.max_file_bytes"),
		maxAge,
		cleanupFreq,
		f.logger,
	)
}

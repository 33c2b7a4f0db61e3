package factory

import (
	"github.com/itx-nasir/phish-guard/internal/config"
	"github.com/itx-nasir/phish-guard/internal/core"
	"go.uber.org/zap"
)

// AnalyzerFactory creates the analysis engine from configuration
type AnalyzerFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewAnalyzerFactory creates a new analyzer factory
func NewAnalyzerFactory(cfg *config.Config, logger *zap.Logger) *AnalyzerFactory {
	return &AnalyzerFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateAnalyzerService creates an analyzer service based on the configuration
func (f *AnalyzerFactory) CreateAnalyzerService() *core.AnalyzerService {
	return core.NewAnalyzerService(f.CreateAnalysisConfig(), f.logger)
}

// CreateAnalysisConfig builds the engine configuration, falling back
// to the built-in defaults for unset values
func (f *AnalyzerFactory) CreateAnalysisConfig() core.AnalysisConfig {
	engineCfg := core.DefaultAnalysisConfig()

	if threshold := f.cfg.GetFloat64("analysis.threat_threshold"); threshold > 0 {
		engineCfg.ThreatThreshold = threshold
	}
	engineCfg.StrictAuth = f.cfg.GetBool("analysis.strict_auth")
	engineCfg.FlagArchives = f.cfg.GetBool("analysis.flag_archives")
	if extensions := f.cfg.GetStringSlice("analysis.dangerous_extensions"); len(extensions) > 0 {
		engineCfg.DangerousExtensions = extensions
	}
	if maxBytes := f.cfg.GetInt64("analysis.max_file_bytes"); maxBytes > 0 {
		engineCfg.MaxFileBytes = maxBytes
	}

	return engineCfg
}

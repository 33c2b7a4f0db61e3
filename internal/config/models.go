package config

// ServerConfig represents the HTTP server configuration
type ServerConfig struct {
	ListenAddress string
	UploadDir     string
	RateLimitMax  int
}

// HistoryConfig represents the analysis history storage configuration
type HistoryConfig struct {
	Type       string
	SQLitePath string
	MySQLDSN   string
}

// QueueConfig represents the async dispatcher configuration
type QueueConfig struct {
	Workers    int
	MaxRetries int
}

// GetServer returns the server configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		ListenAddress: c.GetString("server.listen_address"),
		UploadDir:     c.GetString("server.upload_dir"),
		RateLimitMax:  c.GetInt("server.rate_limit.max_requests"),
	}
}

// GetHistory returns the history storage configuration
func (c *Config) GetHistory() HistoryConfig {
	return HistoryConfig{
		Type:       c.GetString("history.type"),
		SQLitePath: c.GetString("history.sqlite_path"),
		MySQLDSN:   c.GetString("history.mysql_dsn"),
	}
}

// GetQueue returns the dispatcher configuration
func (c *Config) GetQueue() QueueConfig {
	return QueueConfig{
		Workers:    c.GetInt("queue.workers"),
		MaxRetries: c.GetInt("queue.max_retries"),
	}
}

package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8090
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "./.modelindex/index.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "./.modelindex/bleve"
	}
	if cfg.Project.Root == "" {
		cfg.Project.Root = "."
	}
	if cfg.Project.Ignore == nil {
		cfg.Project.Ignore = []string{"node_modules", "target", "dist"}
	}
	if cfg.Project.MaxFileSize == 0 {
		cfg.Project.MaxFileSize = 10 << 20
	}
	// Recursive defaults to true when unset (nil).
	if cfg.Project.Recursive == nil {
		t := true
		cfg.Project.Recursive = &t
	}
	if cfg.Indexer.CacheSize == 0 {
		cfg.Indexer.CacheSize = 4096
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Search.TopKCandidates == 0 {
		cfg.Search.TopKCandidates = 50
	}
	cfg.Search.Ranking.ApplyDefaults()
}

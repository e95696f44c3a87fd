package services

import "docshelf/config"

// appConfig returns the loaded config, or defaults when nothing was loaded.
func appConfig() *config.Config {
	if config.AppConfig != nil {
		return config.AppConfig
	}
	return config.Default()
}

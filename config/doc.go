// Package config loads layered service configuration with viper.
//
// Sources, lowest precedence first: defaults passed with WithDefaults,
// config.yml, a .env file (godotenv), and the process environment.
// Environment keys map onto nested keys, so EXTRACTION_TIMEOUT fills
// extraction.timeout.
package config

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads base.yaml, then the env-specific file, then environment overrides.
// env is local, production or any other environment name.
// configDir defaults to "config".
//
// Precedence, lowest first: Defaults, base.yaml, <env>.yaml, environment variables.
// secrets.env in configDir and .env in the working directory are loaded into the
// process environment first, so they take part in ${VAR} expansion and overrides.
func Load(configDir, env string) (*Config, error) {
	if configDir == "" {
		configDir = "config"
	}

	if err := loadDotEnv(filepath.Join(configDir, "secrets.env"), ".env"); err != nil {
		return nil, err
	}

	// 1. base.yaml
	baseConfig, err := loadYAMLFile(filepath.Join(configDir, "base.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to load base.yaml: %w", err)
	}

	// 2. environment file, if present
	envConfig := make(map[string]interface{})
	if env != "" && env != "base" {
		envFile := filepath.Join(configDir, fmt.Sprintf("%s.yaml", env))
		if _, statErr := os.Stat(envFile); statErr == nil {
			envConfig, err = loadYAMLFile(envFile)
			if err != nil {
				return nil, fmt.Errorf("failed to load %s.yaml: %w", env, err)
			}
		}
	}

	// 3. environment values win over base
	merged := mergeMaps(baseConfig, envConfig)

	cfg := Defaults()
	if err := decodeInto(merged, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// 4. process environment wins over both
	OverrideFromEnv(&cfg)

	return &cfg, nil
}

// loadDotEnv loads every existing file; variables already set are kept.
func loadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// loadYAMLFile reads a YAML file and expands ${VAR} placeholders.
func loadYAMLFile(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	config := make(map[string]interface{})
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return nil, err
	}

	return config, nil
}

// decodeInto round-trips the merged map through YAML so struct tags and
// time.Duration parsing apply.
func decodeInto(m map[string]interface{}, cfg *Config) error {
	raw, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(raw, cfg)
}

// mergeMaps copies src into dst; src wins on conflicts.
func mergeMaps(dst, src map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(dst)+len(src))

	for k, v := range dst {
		result[k] = v
	}

	for k, v := range src {
		dstMap, dstIsMap := result[k].(map[string]interface{})
		srcMap, srcIsMap := v.(map[string]interface{})
		if dstIsMap && srcIsMap {
			// nested maps merge recursively
			result[k] = mergeMaps(dstMap, srcMap)
			continue
		}
		result[k] = v
	}

	return result
}

// GetEnv returns the variable, or defaultValue when it is unset.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetConfigEnv returns CONFIG_ENV, defaulting to local.
func GetConfigEnv() string {
	return GetEnv("CONFIG_ENV", "local")
}

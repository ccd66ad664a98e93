package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var requiredProfiles = []string{
	"child_friendly",
	"elder_friendly",
	"professional_friendly",
	"casual_friendly",
}

func LoadTonesConfig() (*TonesConfig, error) {

	path := os.Getenv("TONES_CONFIG_PATH")
	if path == "" {
		path = "configs/tones.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg TonesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *TonesConfig) {
	if cfg.Selector.AgeWeight == 0 {
		cfg.Selector.AgeWeight = 3
	}
	if cfg.Selector.KeywordWeight == 0 {
		cfg.Selector.KeywordWeight = 1
	}
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]ProfileConfig{}
	}
}

func (c *TonesConfig) Validate() error {
	for _, name := range requiredProfiles {
		if _, ok := c.Profiles[name]; !ok {
			return fmt.Errorf("tones config missing profile %q", name)
		}
	}
	return nil
}

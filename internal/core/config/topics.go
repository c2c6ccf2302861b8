package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TopicConfig is the decoded configuration of one destination.
// Filters stay loosely typed; rules.CompileFilters validates them.
type TopicConfig struct {
	Format  *string `yaml:"format"`
	Title   *string `yaml:"title"`
	Filters []any   `yaml:"filters"`
}

// topicsFile is the part of the config file holding per-topic rules.
type topicsFile struct {
	Topics map[string]TopicConfig `yaml:"topics"`
}

// LoadTopics reads the topics section of the config file.
// Decoded with yaml.v3 rather than viper because topic names are
// case-sensitive and viper lowercases keys.
// An empty path yields no topics (every destination uses defaults).
func LoadTopics(configPath string) (map[string]TopicConfig, error) {
	if configPath == "" {
		return map[string]TopicConfig{}, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read topics: %w", err)
	}
	return ParseTopics(data)
}

// ParseTopics decodes the topics section from YAML (or JSON) bytes.
func ParseTopics(data []byte) (map[string]TopicConfig, error) {
	var f topicsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse topics: %w", err)
	}
	if f.Topics == nil {
		f.Topics = map[string]TopicConfig{}
	}
	return f.Topics, nil
}

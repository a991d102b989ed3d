package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TargetsFile is the YAML input of a one-shot run: the profile URLs to
// scrape plus optional per-run overrides.
//
//	urls:
//	  - https://www.linkedin.com/in/jane-doe/
//	  - https://www.linkedin.com/in/john-smith-1a2b3c/
//	chunk_size: 50
//	max_concurrent: 3
type TargetsFile struct {
	URLs          []string `yaml:"urls"`
	ChunkSize     int      `yaml:"chunk_size"`
	MaxConcurrent int      `yaml:"max_concurrent"`
}

// LoadTargets reads and validates a targets file
func LoadTargets(path string) (*TargetsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read targets file: %w", err)
	}

	var targets TargetsFile
	if err := yaml.Unmarshal(data, &targets); err != nil {
		return nil, fmt.Errorf("failed to parse targets file: %w", err)
	}

	if len(targets.URLs) == 0 {
		return nil, fmt.Errorf("targets file %s contains no urls", path)
	}

	return &targets, nil
}

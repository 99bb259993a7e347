package fetch

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/arxiv-trends/pkg/types"
)

// TopicsFile is the on-disk representation of a topic filter list. Keeping
// the filters in a standalone file lets the watch list evolve without
// touching the main configuration.
type TopicsFile struct {
	// Topics lists arXiv filter expressions, one per entry
	// (e.g. "cat:cs.CL", "all:diffusion").
	Topics []string `yaml:"topics"`
}

// ReadTopicsFile loads a topic filter list from a YAML file.
func ReadTopicsFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading topics file: %w", err)
	}
	var tf TopicsFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parsing topics file %s: %w", path, err)
	}
	if len(tf.Topics) == 0 {
		return nil, fmt.Errorf("topics file %s lists no topics", path)
	}
	return tf.Topics, nil
}

// WriteTopicsFile saves a topic filter list to a YAML file.
func WriteTopicsFile(path string, topics []string) error {
	data, err := yaml.Marshal(&TopicsFile{Topics: topics})
	if err != nil {
		return fmt.Errorf("marshaling topics file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// resolveTopics returns the effective topic filters: the topics file when
// configured, the inline list otherwise. An empty result is an error since
// an unfiltered query would sweep all of arXiv.
func resolveTopics(cfg types.FetchConfig) ([]string, error) {
	if cfg.TopicsFile != "" {
		return ReadTopicsFile(cfg.TopicsFile)
	}
	if len(cfg.Topics) == 0 {
		return nil, fmt.Errorf("no topic filters configured")
	}
	return cfg.Topics, nil
}

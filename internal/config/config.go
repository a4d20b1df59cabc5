package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/hankgalt/sentencepool/pkg/domain"
	"github.com/hankgalt/sentencepool/pkg/pooling"
)

// Config is the sentpool configuration file (~/.config/sentpool/config.yaml).
// Pointer fields distinguish "not set" from zero values.
type Config struct {
	ModelDir      string `yaml:"model_dir"`
	InputNameIDs  string `yaml:"input_name_ids"`
	InputNameMask string `yaml:"input_name_mask"`
	OutputName    string `yaml:"output_name"`
	MaxSeqLen     *int   `yaml:"max_seq_len"`

	Pooling       string `yaml:"pooling"`
	PaddingIndex  *int64 `yaml:"padding_index"`
	SkipNormalize *bool  `yaml:"skip_normalize"`

	ServerAddress string `yaml:"server_address"`
}

// Path returns the default config file location, or "" when the user
// config dir is unknown.
func Path() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "sentpool", "config.yaml")
}

// Load reads the config at path. A missing or empty file yields an empty
// Config; unknown keys are an error.
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := pooling.ParseStrategy(c.Pooling); err != nil {
		return err
	}
	if c.MaxSeqLen != nil && *c.MaxSeqLen < 0 {
		return fmt.Errorf("max_seq_len must be >= 0, got %d", *c.MaxSeqLen)
	}
	return nil
}

// EncoderConfig fills an encoder config from the file, with defaults for
// the common sentence-transformers export layout.
func (c Config) EncoderConfig() domain.ONNXEncoderConfig {
	enc := domain.ONNXEncoderConfig{
		ModelPath:     c.ModelDir,
		InputNameIDs:  orDefault(c.InputNameIDs, "input_ids"),
		InputNameMask: orDefault(c.InputNameMask, "attention_mask"),
		OutputName:    orDefault(c.OutputName, "last_hidden_state"),
		MaxSeqLen:     256,
		Pooling:       orDefault(c.Pooling, pooling.StrategyAvg.String()),
		PaddingIndex:  c.PaddingIndex,
	}
	if c.MaxSeqLen != nil {
		enc.MaxSeqLen = *c.MaxSeqLen
	}
	if c.SkipNormalize != nil {
		enc.SkipNormalize = *c.SkipNormalize
	}
	return enc
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

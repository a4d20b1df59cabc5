package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hankgalt/sentencepool/pkg/pooling"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
model_dir: models/minilm
output_name: token_embeddings
max_seq_len: 128
pooling: max
padding_index: 1
skip_normalize: true
server_address: 0.0.0.0:9000
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ModelDir != "models/minilm" || cfg.ServerAddress != "0.0.0.0:9000" {
		t.Errorf("unexpected config: %+v", cfg)
	}

	enc := cfg.EncoderConfig()
	if enc.ModelPath != "models/minilm" {
		t.Errorf("ModelPath = %q", enc.ModelPath)
	}
	if enc.InputNameIDs != "input_ids" || enc.InputNameMask != "attention_mask" {
		t.Errorf("input names = %q, %q", enc.InputNameIDs, enc.InputNameMask)
	}
	if enc.OutputName != "token_embeddings" || enc.MaxSeqLen != 128 || enc.Pooling != "max" {
		t.Errorf("unexpected encoder config: %+v", enc)
	}
	if enc.PaddingIndex == nil || *enc.PaddingIndex != 1 {
		t.Errorf("PaddingIndex = %v", enc.PaddingIndex)
	}
	if !enc.SkipNormalize {
		t.Error("SkipNormalize = false, want true")
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	enc := cfg.EncoderConfig()
	if enc.Pooling != "avg" || enc.MaxSeqLen != 256 || enc.OutputName != "last_hidden_state" {
		t.Errorf("unexpected defaults: %+v", enc)
	}
}

func TestLoadInvalid(t *testing.T) {
	if _, err := Load(writeConfig(t, "pooling: [")); err == nil {
		t.Error("expected parse error")
	}
	_, err := Load(writeConfig(t, "pooling: median\n"))
	if !errors.Is(err, pooling.ErrUnknownStrategy) {
		t.Errorf("err = %v, want ErrUnknownStrategy", err)
	}
	if _, err := Load(writeConfig(t, "max_seq_len: -1\n")); err == nil {
		t.Error("expected error for negative max_seq_len")
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, "pooling: max\nlog_level: debug\n"))
	if err == nil {
		t.Fatal("expected error for unsupported log_level key")
	}
	if !strings.Contains(err.Error(), "log_level") {
		t.Errorf("err = %v, want it to name log_level", err)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.EncoderConfig().Pooling != "avg" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

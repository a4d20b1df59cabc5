package onnx

import (
	"fmt"

	tk "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

const defaultMaxSeqLen = 512

// HFTokenizer wraps a HuggingFace tokenizer for ONNX models.
type HFTokenizer struct {
	tok   *tk.Tokenizer
	padID int
}

// Batch is a right-padded tokenized batch. IDs and Mask are [B][T].
type Batch struct {
	IDs    [][]int32
	Mask   [][]int32
	SeqLen int
}

// NewHFTokenizerFromLocal loads a tokenizer from a local tokenizer.json file.
func NewHFTokenizerFromLocal(path string) (*HFTokenizer, error) {
	tok, err := pretrained.FromFile(path) // loads tokenizer.json
	if err != nil {
		return nil, fmt.Errorf("load tokenizer %s: %w", path, err)
	}
	return &HFTokenizer{tok: tok, padID: padTokenID(tok)}, nil
}

// padTokenID looks up the pad token across common vocabularies
// (BERT, RoBERTa/XLM-R, T5). Falls back to 0.
func padTokenID(t *tk.Tokenizer) int {
	for _, name := range []string{"[PAD]", "<pad>"} {
		if id, ok := t.TokenToId(name); ok {
			return int(id)
		}
	}
	return 0
}

// PadID is the id written into padded positions; pooling uses it as the
// padding index.
func (h *HFTokenizer) PadID() int {
	return h.padID
}

// VocabSize returns the size of the tokenizer's vocabulary.
func (h *HFTokenizer) VocabSize() (int, error) {
	if h.tok == nil {
		return 0, fmt.Errorf("tokenizer nil")
	}
	return int(h.tok.GetVocabSize(false)), nil
}

// EncodeBatch tokenizes texts, truncates to maxLen and right-pads every row
// to the longest one.
func (h *HFTokenizer) EncodeBatch(texts []string, maxLen int) (*Batch, error) {
	if h.tok == nil {
		return nil, fmt.Errorf("tokenizer nil")
	}
	if maxLen <= 0 {
		maxLen = defaultMaxSeqLen
	}

	rows := make([][]int, 0, len(texts))
	T := 0
	for _, s := range texts {
		enc, err := h.tok.EncodeSingle(s, true)
		if err != nil {
			return nil, fmt.Errorf("encode %q: %w", s, err)
		}
		ids := enc.Ids
		if len(ids) > maxLen {
			ids = ids[:maxLen]
		}
		rows = append(rows, ids)
		T = max(T, len(ids))
	}
	return padRows(rows, T, h.padID), nil
}

// padRows lays rows out as [B][T] with padID after each row's end. Pad ids
// inside a row are masked out too.
func padRows(rows [][]int, T, padID int) *Batch {
	b := &Batch{
		IDs:    make([][]int32, len(rows)),
		Mask:   make([][]int32, len(rows)),
		SeqLen: T,
	}
	for i, row := range rows {
		ids := make([]int32, T)
		mask := make([]int32, T)
		for t := range ids {
			if t >= len(row) {
				ids[t] = int32(padID)
				continue
			}
			ids[t] = int32(row[t])
			if row[t] != padID {
				mask[t] = 1
			}
		}
		b.IDs[i], b.Mask[i] = ids, mask
	}
	return b
}

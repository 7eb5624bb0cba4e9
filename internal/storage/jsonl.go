package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"honeyScope/internal/model"
)

// JsonlStorage appends pair and verdict records to a JSONL file. Each line is
// an envelope with a kind discriminator so both record types share one stream.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

type jsonlRecord struct {
	Kind    string         `json:"kind"`
	Pair    *model.Pair    `json:"pair,omitempty"`
	Verdict *model.Verdict `json:"verdict,omitempty"`
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// PutPairBatch appends discovered pairs as JSON lines.
func (s *JsonlStorage) PutPairBatch(_ context.Context, pairs []model.Pair) error {
	if len(pairs) == 0 {
		return nil
	}
	records := make([]jsonlRecord, 0, len(pairs))
	for i := range pairs {
		records = append(records, jsonlRecord{Kind: "pair", Pair: &pairs[i]})
	}
	return s.appendRecords(records)
}

// PutVerdictBatch appends probe verdicts as JSON lines.
func (s *JsonlStorage) PutVerdictBatch(_ context.Context, verdicts []model.Verdict) error {
	if len(verdicts) == 0 {
		return nil
	}
	records := make([]jsonlRecord, 0, len(verdicts))
	for i := range verdicts {
		records = append(records, jsonlRecord{Kind: "verdict", Verdict: &verdicts[i]})
	}
	return s.appendRecords(records)
}

func (s *JsonlStorage) appendRecords(records []jsonlRecord) error {
	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}

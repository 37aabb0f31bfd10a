package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"positionScope/internal/model"
)

// JsonlStorage writes position views to a JSONL file.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// PutViews appends a batch of position views as JSON lines.
func (s *JsonlStorage) PutViews(views []model.PositionView) error {
	if len(views) == 0 {
		return nil
	}

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
	for _, view := range views {
		line, err := json.Marshal(view)
		if err != nil {
			return fmt.Errorf("marshal position view: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write position view: %w", err)
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

// ReadViews loads every view from a JSONL file.
func ReadViews(path string) ([]model.PositionView, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open views file: %w", err)
	}
	defer file.Close()

	var views []model.PositionView
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for line := 1; scanner.Scan(); line++ {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var view model.PositionView
		if err := json.Unmarshal(scanner.Bytes(), &view); err != nil {
			return nil, fmt.Errorf("decode line %d: %w", line, err)
		}
		views = append(views, view)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan views file: %w", err)
	}
	return views, nil
}

package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"financescrapper/record"
)

// JSONLines writes one JSON object per record.
type JSONLines struct {
	w  io.Writer
	mu sync.Mutex
}

var _ Sink = (*JSONLines)(nil)

// NewJSONLines writes records to w.
func NewJSONLines(w io.Writer) *JSONLines {
	return &JSONLines{w: w}
}

// Append implements Sink.
func (j *JSONLines) Append(_ context.Context, r record.Record) error {
	if err := CheckComplete(r); err != nil {
		return err
	}

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

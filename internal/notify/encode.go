package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
)

var bufPool = sync.Pool{
	New: func() any {
		return bytes.NewBuffer(make([]byte, 0, 512))
	},
}

// encode renders e as JSON. The returned slice is owned by the caller.
func encode(e Event) ([]byte, error) {
	buf := bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufPool.Put(buf)

	if err := json.NewEncoder(buf).Encode(e); err != nil {
		return nil, fmt.Errorf("encoding event: %w", err)
	}
	// Encode terminates with a newline
	return bytes.Clone(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ExecutionResult is the ordered output of one canvas execution.
type ExecutionResult []Row

// View is a persisted, immutable snapshot of one canvas execution
type View struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	CanvasID  int64           `json:"canvas_id"`
	Data      ExecutionResult `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}

// DefaultViewName names the n-th view of a canvas when the caller gave none.
func DefaultViewName(canvasID int64, existing int) string {
	return fmt.Sprintf("View_%d_%d", canvasID, existing+1)
}

// ResultToJSON encodes an execution result for storage.
func ResultToJSON(result ExecutionResult) (json.RawMessage, error) {
	if result == nil {
		result = ExecutionResult{}
	}
	return json.Marshal(result)
}

// ResultFromJSON decodes a stored execution result
func ResultFromJSON(raw []byte) (ExecutionResult, error) {
	if len(raw) == 0 {
		return ExecutionResult{}, nil
	}
	var result ExecutionResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, err
	}
	if result == nil {
		result = ExecutionResult{}
	}
	return result, nil
}

// Stats counts the objects held by the store.
type Stats struct {
	Tables   int64 `json:"tables"`
	Records  int64 `json:"records"`
	Canvases int64 `json:"canvases"`
	Views    int64 `json:"views"`
}

package dispatch

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/dermaven/skinsight-api/internal/result"
)

const debugResultFile = "last_result.json"

// writeDebug persists the result to the diagnostic directory when one is
// configured. Best-effort: failures are logged at debug level and never
// propagate. Does nothing when the sink is disabled.
func (d *Dispatcher) writeDebug(res *result.Result) {
	if d.debugDir == "" {
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		d.log.Debug("debug sink marshal failed", "error", err)
		return
	}
	if err := os.WriteFile(filepath.Join(d.debugDir, debugResultFile), data, 0o644); err != nil {
		d.log.Debug("debug sink write failed", "error", err)
	}
}

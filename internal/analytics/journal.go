package analytics

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"aura-trader/internal/types"
)

var ist = time.FixedZone("IST", 19800)

// Journal appends confirmed trades as JSON lines to a per-day file so
// simulated sessions survive a restart for later review.
type Journal struct {
	mu  sync.Mutex
	dir string
}

func NewJournal(dir string) *Journal {
	if dir == "" {
		dir = "logs/trades"
	}
	return &Journal{dir: dir}
}

type journalEntry struct {
	Time  string      `json:"time"`
	Trade types.Trade `json:"trade"`
}

func (j *Journal) path(t time.Time) string {
	return filepath.Join(j.dir, t.In(ist).Format("2006-01-02")+".jsonl")
}

func (j *Journal) Append(trade types.Trade) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := time.Now().In(ist)
	p := j.path(now)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	b, err := json.Marshal(journalEntry{
		Time:  now.Format("2006-01-02 15:04:05"),
		Trade: trade,
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(f, string(b))
	return err
}

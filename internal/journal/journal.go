// Package journal keeps a durable local record of the user's swipe
// interactions (skips, undos, eats, ratings). The service keeps its own
// interaction log; this one is the client's copy, append-only with commit
// tracking so entries already acknowledged by the service can be trimmed
// on the next open.
//
// Journal writes are best-effort from the caller's point of view: a
// journaling failure is logged and never changes deck behavior.
package journal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

const (
	fileMode = 0644
	dirMode  = 0755
)

// Action is the kind of interaction being journaled.
type Action string

const (
	ActionSkip Action = "skip"
	ActionUndo Action = "undo"
	ActionEat  Action = "eat"
	ActionRate Action = "rate"
)

// Interaction is one journaled swipe event.
type Interaction struct {
	Action       Action    `json:"action"`
	RestaurantID string    `json:"restaurant_id"`
	Rating       int       `json:"rating,omitempty"` // set for ActionRate only
	At           time.Time `json:"at"`
}

type entry struct {
	Seq         uint64      `json:"seq"`
	Interaction Interaction `json:"interaction"`
}

// Journal is an append-only interaction log with a sidecar commit marker.
// One JSON entry per line.
type Journal struct {
	mu         sync.Mutex
	path       string
	commitPath string
	file       *os.File
	nextSeq    uint64
	committed  uint64
}

// Open creates or opens the journal at path. Entries at or below the
// committed sequence are compacted away; a partially written trailing
// line is ignored.
func Open(path string) (*Journal, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("journal: path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
		return nil, fmt.Errorf("journal: mkdir: %w", err)
	}

	commitPath := path + ".commit"
	committed, err := readCommitted(commitPath)
	if err != nil {
		return nil, err
	}

	maxSeq, err := compactCommitted(path, committed)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_RDWR, fileMode)
	if err != nil {
		return nil, fmt.Errorf("journal: open: %w", err)
	}

	next := maxSeq + 1
	if committed+1 > next {
		next = committed + 1
	}

	return &Journal{
		path:       path,
		commitPath: commitPath,
		file:       f,
		nextSeq:    next,
		committed:  committed,
	}, nil
}

// DefaultPath returns the journal location under the user config dir.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("journal: finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "nomnom", "interactions.jsonl"), nil
}

// Append persists one interaction and returns its sequence number.
func (j *Journal) Append(it Interaction) (uint64, error) {
	if it.At.IsZero() {
		it.At = time.Now()
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	seq := j.nextSeq
	j.nextSeq++

	line, err := json.Marshal(entry{Seq: seq, Interaction: it})
	if err != nil {
		return 0, fmt.Errorf("journal: marshal entry: %w", err)
	}
	line = append(line, '\n')

	if _, err := j.file.Write(line); err != nil {
		return 0, fmt.Errorf("journal: write entry: %w", err)
	}
	if err := j.file.Sync(); err != nil {
		return 0, fmt.Errorf("journal: sync entry: %w", err)
	}
	return seq, nil
}

// Commit marks all entries up to seq as acknowledged; they are trimmed on
// the next Open.
func (j *Journal) Commit(seq uint64) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if seq <= j.committed {
		return nil
	}
	j.committed = seq
	return writeCommitted(j.commitPath, seq)
}

// Committed returns the highest acknowledged sequence number.
func (j *Journal) Committed() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.committed
}

// Replay calls fn for each unacknowledged interaction in sequence order.
func (j *Journal) Replay(fn func(seq uint64, it Interaction) error) error {
	if fn == nil {
		return errors.New("journal: replay callback is nil")
	}

	j.mu.Lock()
	path := j.path
	committed := j.committed
	j.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("journal: open for replay: %w", err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("journal: replay read: %w", err)
		}
		if len(line) == 0 {
			if errors.Is(err, io.EOF) {
				return nil
			}
			continue
		}
		if !strings.HasSuffix(string(line), "\n") {
			// Ignore a potentially partial trailing line.
			return nil
		}

		var e entry
		if uerr := json.Unmarshal(line, &e); uerr != nil {
			// Stop at the first malformed line; replay stays deterministic.
			return nil
		}
		if e.Seq > committed {
			if rerr := fn(e.Seq, e.Interaction); rerr != nil {
				return rerr
			}
		}

		if errors.Is(err, io.EOF) {
			return nil
		}
	}
}

// Close closes the underlying journal file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return nil
	}
	err := j.file.Close()
	j.file = nil
	return err
}

func readCommitted(path string) (uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("journal: read commit file: %w", err)
	}
	v, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, nil
	}
	return v, nil
}

func writeCommitted(path string, seq uint64) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.FormatUint(seq, 10)), fileMode); err != nil {
		return fmt.Errorf("journal: write commit file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("journal: replace commit file: %w", err)
	}
	return nil
}

// compactCommitted rewrites the journal keeping only entries above the
// committed watermark and returns the highest sequence seen.
func compactCommitted(path string, committed uint64) (uint64, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("journal: open for compact: %w", err)
	}

	var keep [][]byte
	var maxSeq uint64
	reader := bufio.NewReader(f)
	for {
		line, rerr := reader.ReadBytes('\n')
		if rerr != nil && !errors.Is(rerr, io.EOF) {
			f.Close()
			return 0, fmt.Errorf("journal: compact read: %w", rerr)
		}
		if len(line) > 0 && strings.HasSuffix(string(line), "\n") {
			var e entry
			if uerr := json.Unmarshal(line, &e); uerr == nil {
				if e.Seq > maxSeq {
					maxSeq = e.Seq
				}
				if e.Seq > committed {
					keep = append(keep, append([]byte(nil), line...))
				}
			}
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
	}
	f.Close()

	tmp := path + ".tmp"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, fileMode)
	if err != nil {
		return 0, fmt.Errorf("journal: compact create: %w", err)
	}
	for _, line := range keep {
		if _, err := out.Write(line); err != nil {
			out.Close()
			return 0, fmt.Errorf("journal: compact write: %w", err)
		}
	}
	if err := out.Close(); err != nil {
		return 0, fmt.Errorf("journal: compact close: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return 0, fmt.Errorf("journal: compact replace: %w", err)
	}
	return maxSeq, nil
}

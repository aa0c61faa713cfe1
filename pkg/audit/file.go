package audit

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// ErrChainBroken is returned when a trail file fails verification.
var ErrChainBroken = errors.New("audit chain broken")

// ChainedEvent is an event as written to a trail file.
type ChainedEvent struct {
	Event
	PreviousHash string `json:"previous_hash,omitempty"`
	Hash         string `json:"hash"`
}

func (c *ChainedEvent) digest() (string, error) {
	tmp := *c
	tmp.Hash = ""
	data, err := json.Marshal(tmp)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// FileTrail appends hash-chained JSONL events to a file, syncing each one.
// Reopening an existing file continues its chain.
type FileTrail struct {
	mu       sync.Mutex
	file     *os.File
	writer   *bufio.Writer
	lastHash string
	count    int64
}

// OpenFileTrail opens or creates path for appending.
func OpenFileTrail(path string) (*FileTrail, error) {
	last, err := lastHash(path)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit trail: %w", err)
	}
	return &FileTrail{file: f, writer: bufio.NewWriter(f), lastHash: last}, nil
}

// lastHash returns the hash of the final event in path, or "" when the
// file does not exist yet.
func lastHash(path string) (_ string, retErr error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("open audit trail: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && retErr == nil {
			retErr = cerr
		}
	}()

	var last string
	err = scan(f, func(_ int, e *ChainedEvent) error {
		last = e.Hash
		return nil
	})
	return last, err
}

// Record appends event to the chain and syncs it to disk.
func (t *FileTrail) Record(event *Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.file == nil {
		return os.ErrClosed
	}
	fill(event)
	ce := ChainedEvent{Event: *event, PreviousHash: t.lastHash}
	hash, err := ce.digest()
	if err != nil {
		return err
	}
	ce.Hash = hash

	line, err := json.Marshal(ce)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := t.writer.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	if err := t.writer.Flush(); err != nil {
		return fmt.Errorf("flush event: %w", err)
	}
	if err := t.file.Sync(); err != nil {
		return fmt.Errorf("sync audit trail: %w", err)
	}
	t.lastHash = hash
	t.count++
	return nil
}

// Count returns the number of events written since the trail was opened.
func (t *FileTrail) Count() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

// Close flushes and closes the file.
func (t *FileTrail) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.file == nil {
		return nil
	}
	flushErr := t.writer.Flush()
	closeErr := t.file.Close()
	t.file = nil
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

func scan(r io.Reader, fn func(line int, e *ChainedEvent) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	n := 0
	for sc.Scan() {
		n++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var e ChainedEvent
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return fmt.Errorf("line %d: parse event: %w", n, err)
		}
		if err := fn(n, &e); err != nil {
			return err
		}
	}
	return sc.Err()
}

// Verify walks a trail and checks every hash and link. It returns the
// number of events verified before the first problem.
func Verify(r io.Reader) (int, error) {
	var prev string
	count := 0
	err := scan(r, func(line int, e *ChainedEvent) error {
		if e.PreviousHash != prev {
			return fmt.Errorf("%w: line %d links to %q, want %q", ErrChainBroken, line, e.PreviousHash, prev)
		}
		want, err := e.digest()
		if err != nil {
			return err
		}
		if want != e.Hash {
			return fmt.Errorf("%w: line %d hash mismatch", ErrChainBroken, line)
		}
		prev = e.Hash
		count++
		return nil
	})
	return count, err
}

// Read returns the events in r that match filter, in file order.
func Read(r io.Reader, filter *Filter) ([]Event, error) {
	var out []Event
	err := scan(r, func(_ int, e *ChainedEvent) error {
		if filter.Match(&e.Event) {
			out = append(out, e.Event)
		}
		return nil
	})
	return out, err
}

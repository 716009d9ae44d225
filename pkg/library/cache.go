package library

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/CTAG07/fae/pkg/bytecode"
	"github.com/natefinch/atomic"
)

// programCache persists compiled Programs to disk, keyed by a template's
// root-relative name and the sha256 of its source bytes, so that Reload
// can skip recompiling files that haven't changed since the last run.
// Entries are written with natefinch/atomic so a crash mid-write never
// leaves a corrupt cache file — a stale or unreadable entry is simply
// treated as a miss, never as an error.
type programCache struct {
	dir string
}

func newProgramCache(dir string) *programCache {
	return &programCache{dir: dir}
}

// entry is the on-disk cache record: the source hash it was compiled
// from, plus the compiled Program itself.
type entry struct {
	Hash    [32]byte
	Program bytecode.Program
}

func (c *programCache) pathFor(name string, hash [32]byte) string {
	// Fold the template name into the key so a rename, or two files that
	// happen to share byte-identical content, never collide.
	h := sha256.New()
	h.Write([]byte(name))
	h.Write(hash[:])
	return filepath.Join(c.dir, hex.EncodeToString(h.Sum(nil))+".faprog")
}

func (c *programCache) Load(name string, hash [32]byte) (*bytecode.Program, bool) {
	data, err := os.ReadFile(c.pathFor(name, hash))
	if err != nil {
		return nil, false
	}

	var e entry
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&e); err != nil {
		return nil, false
	}
	if e.Hash != hash {
		return nil, false
	}
	return &e.Program, true
}

func (c *programCache) Store(name string, hash [32]byte, prog *bytecode.Program) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entry{Hash: hash, Program: *prog}); err != nil {
		return err
	}

	return atomic.WriteFile(c.pathFor(name, hash), &buf)
}

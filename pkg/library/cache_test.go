package library

import (
	"crypto/sha256"
	"testing"

	"github.com/CTAG07/fae/pkg/bytecode"
)

func TestProgramCacheStoreAndLoad(t *testing.T) {
	dir := t.TempDir()
	cache := newProgramCache(dir)

	prog := &bytecode.Program{
		Code:      []bytecode.Instruction{bytecode.Make(bytecode.Copy, 0), bytecode.Make(bytecode.Halt, 0)},
		Fragments: []string{"hello"},
	}
	hash := sha256.Sum256([]byte("hello"))

	if err := cache.Store("greet.txt", hash, prog); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	got, ok := cache.Load("greet.txt", hash)
	if !ok {
		t.Fatal("Load returned ok=false after a successful Store")
	}
	if len(got.Code) != len(prog.Code) || got.Fragments[0] != "hello" {
		t.Errorf("Load returned %+v, want a copy of %+v", got, prog)
	}
}

func TestProgramCacheMissOnHashMismatch(t *testing.T) {
	dir := t.TempDir()
	cache := newProgramCache(dir)

	prog := &bytecode.Program{Fragments: []string{"v1"}}
	hash := sha256.Sum256([]byte("v1"))
	if err := cache.Store("t.txt", hash, prog); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	otherHash := sha256.Sum256([]byte("v2"))
	if _, ok := cache.Load("t.txt", otherHash); ok {
		t.Error("Load succeeded for a different source hash, want a miss")
	}
}

func TestProgramCacheMissWhenAbsent(t *testing.T) {
	cache := newProgramCache(t.TempDir())
	hash := sha256.Sum256([]byte("never stored"))
	if _, ok := cache.Load("missing.txt", hash); ok {
		t.Error("Load succeeded for an entry that was never stored")
	}
}

package module

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vinayprograms/conclave/internal/memory"
	"github.com/vinayprograms/conclave/internal/rag"
	taskerrors "github.com/vinayprograms/conclave/internal/errors"
)

// fakeRAGEmbedder returns a fixed-length vector so rag module tests
// can exercise index/query without a real embedding provider.
type fakeRAGEmbedder struct{}

func (fakeRAGEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func TestFSModuleReadReturnsContentVerbatim(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	fs := NewFSModule()
	got, err := fs.Execute(context.Background(), "read", []string{path})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != "hello" {
		t.Errorf("got %q", got)
	}
}

func TestFSModuleReadHonorsOffsetAndLength(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	os.WriteFile(path, []byte("0123456789"), 0o644)

	fs := NewFSModule()
	got, err := fs.Execute(context.Background(), "read", []string{path, "offset=2", "length=3"})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != "234" {
		t.Errorf("got %q, want %q", got, "234")
	}
}

func TestFSModuleReadBinaryFileFailsWithUnsupportedEncoding(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.bin")
	os.WriteFile(path, []byte{0x00, 0x01, 0x02, 'a', 'b'}, 0o644)

	fs := NewFSModule()
	_, err := fs.Execute(context.Background(), "read", []string{path})
	if err == nil {
		t.Fatal("expected error")
	}
	var modErr *taskerrors.ModuleError
	if !asModuleError(err, &modErr) {
		t.Fatalf("expected *ModuleError, got %T", err)
	}
	if modErr.Kind != taskerrors.ModuleUnsupportedEncode {
		t.Errorf("kind = %v, want UnsupportedEncoding", modErr.Kind)
	}
}

func TestFSModuleReadMissingFileYieldsModuleError(t *testing.T) {
	fs := NewFSModule()
	_, err := fs.Execute(context.Background(), "read", []string{"/nonexistent/path"})
	if err == nil {
		t.Fatal("expected error")
	}
	var modErr *taskerrors.ModuleError
	if !asModuleError(err, &modErr) {
		t.Fatalf("expected *ModuleError, got %T", err)
	}
	if modErr.Kind != taskerrors.ModulePathNotFound {
		t.Errorf("kind = %v", modErr.Kind)
	}
}

func TestFSModuleListReturnsOnePathPerLine(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "x.txt"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(dir, "y.txt"), []byte("y"), 0o644)

	fs := NewFSModule()
	got, err := fs.Execute(context.Background(), "list", []string{dir})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), got)
	}
	if !strings.Contains(got, "x.txt") || !strings.Contains(got, "y.txt") {
		t.Errorf("got %q", got)
	}
	if strings.Contains(got, "1.") || strings.Contains(got, "2.") {
		t.Errorf("got %q, want no numbering", got)
	}
}

func TestFSModuleListRecursiveWalksSubdirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	os.Mkdir(sub, 0o755)
	os.WriteFile(filepath.Join(dir, "top.txt"), []byte("top"), 0o644)
	os.WriteFile(filepath.Join(sub, "deep.txt"), []byte("deep"), 0o644)

	fs := NewFSModule()

	got, err := fs.Execute(context.Background(), "list", []string{dir})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if strings.Contains(got, "deep.txt") {
		t.Errorf("non-recursive list should not see nested files: %q", got)
	}

	got, err = fs.Execute(context.Background(), "list", []string{dir, "recursive=true"})
	if err != nil {
		t.Fatalf("list recursive: %v", err)
	}
	if !strings.Contains(got, "deep.txt") {
		t.Errorf("recursive list should see nested files, got %q", got)
	}
}

func TestShModuleDisallowedCommand(t *testing.T) {
	sh := NewShModule([]string{"ls"})
	_, err := sh.Execute(context.Background(), "run", []string{"cat", "/etc/passwd"})
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "DisallowedCommand cat" {
		t.Errorf("error = %q, want %q", err.Error(), "DisallowedCommand cat")
	}
}

func TestShModuleAllowedCommandRuns(t *testing.T) {
	sh := NewShModule([]string{"echo"})
	got, err := sh.Execute(context.Background(), "run", []string{"echo", "hi"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.TrimSpace(got) != "hi" {
		t.Errorf("got %q", got)
	}
}

func TestShModuleEmptyAllowListPermitsAnyCommand(t *testing.T) {
	sh := NewShModule(nil)
	_, err := sh.Execute(context.Background(), "run", []string{"echo", "ok"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestShModuleNonZeroExitIsResultNotError(t *testing.T) {
	sh := NewShModule(nil)
	got, err := sh.Execute(context.Background(), "run", []string{"sh", "-c", "echo oops >&2; exit 3"})
	if err != nil {
		t.Fatalf("unexpected error for a non-zero exit: %v", err)
	}
	if !strings.Contains(got, "exit code: 3") {
		t.Errorf("got %q, want it to mention exit code 3", got)
	}
	if !strings.Contains(got, "oops") {
		t.Errorf("got %q, want it to include stderr", got)
	}
}

func TestRAGModuleIndexRawTextThenQueryRendersSourceAndChunkIndex(t *testing.T) {
	mod := NewRAGModule(rag.NewInMemoryStore(fakeRAGEmbedder{}))
	ctx := context.Background()

	if _, err := mod.Execute(ctx, "index", []string{"some raw text to embed", "document_id=doc-1"}); err != nil {
		t.Fatalf("index: %v", err)
	}

	got, err := mod.Execute(ctx, "query", []string{"some raw text to embed", "k=1"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if !strings.HasPrefix(got, "[#0] ") {
		t.Errorf("got %q, want it to start with [#0] for raw-text input with no source path", got)
	}
}

func TestRAGModuleIndexSourcePathRendersPathInResult(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	os.WriteFile(path, []byte("apples are red"), 0o644)

	mod := NewRAGModule(rag.NewInMemoryStore(fakeRAGEmbedder{}))
	ctx := context.Background()

	if _, err := mod.Execute(ctx, "index", []string{path, "document_id=doc-1"}); err != nil {
		t.Fatalf("index: %v", err)
	}

	got, err := mod.Execute(ctx, "query", []string{"apples"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	want := "[" + path + "#0] apples are red"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRAGModuleIndexMissingDocumentIDErrors(t *testing.T) {
	mod := NewRAGModule(rag.NewInMemoryStore(fakeRAGEmbedder{}))
	_, err := mod.Execute(context.Background(), "index", []string{"raw text"})
	if err == nil {
		t.Fatal("expected error for missing document_id")
	}
}

func TestRAGModuleReindexSameDocumentIDIsIdempotent(t *testing.T) {
	store := rag.NewInMemoryStore(fakeRAGEmbedder{})
	mod := NewRAGModule(store)
	ctx := context.Background()

	mod.Execute(ctx, "index", []string{"first version", "document_id=doc-1"})
	mod.Execute(ctx, "index", []string{"second version", "document_id=doc-1"})

	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after re-indexing the same document_id", store.Len())
	}
}

func TestRAGModuleQueryUnknownActionIsRejected(t *testing.T) {
	mod := NewRAGModule(rag.NewInMemoryStore(fakeRAGEmbedder{}))
	_, err := mod.Execute(context.Background(), "search", []string{"anything"})
	if err == nil {
		t.Fatal("expected UnknownAction for the removed 'search' action")
	}
}

func TestMemoriesModuleInsertAndRecall(t *testing.T) {
	store, err := memory.NewBleveStore()
	if err != nil {
		t.Fatalf("NewBleveStore: %v", err)
	}
	defer store.Close()

	mod := NewMemoriesModule(store)
	ctx := context.Background()

	if _, err := mod.Execute(ctx, "insert", []string{"the", "deploy", "failed", "on", "staging"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, err := mod.Execute(ctx, "recall", []string{"deploy"})
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if !strings.Contains(got, "deploy") {
		t.Errorf("got %q", got)
	}
}

func TestRegistryDispatchUnknownModuleListsAvailable(t *testing.T) {
	reg := NewRegistry(NewFSModule(), NewShModule(nil))
	_, err := reg.Dispatch(context.Background(), "telepathy", "read", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "fs") || !strings.Contains(err.Error(), "sh") {
		t.Errorf("error = %q, want it to list registered modules", err.Error())
	}
}

func TestRegistryDispatchRoutesToModule(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	os.WriteFile(path, []byte("content"), 0o644)

	reg := NewRegistry(NewFSModule())
	got, err := reg.Dispatch(context.Background(), "fs", "read", []string{path})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if got != "content" {
		t.Errorf("got %q", got)
	}
}

func asModuleError(err error, target **taskerrors.ModuleError) bool {
	if me, ok := err.(*taskerrors.ModuleError); ok {
		*target = me
		return true
	}
	return false
}

package index

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/starford/vaultlens/internal/storage"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "vaultlens-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func upsert(t *testing.T, db *DB, path string, links map[string]int) {
	t.Helper()
	if err := db.UpsertNote(NoteRow{Path: path, Checksum: "x", UpdatedAt: time.Now()}, links); err != nil {
		t.Fatalf("UpsertNote(%s): %v", path, err)
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes`).Scan(&count); err != nil {
		t.Fatalf("notes table missing: %v", err)
	}
	for _, table := range []string{"links", "attachments", "aliases"} {
		if err := db.conn.QueryRow(`SELECT count(*) FROM ` + table).Scan(&count); err != nil {
			t.Fatalf("%s table missing: %v", table, err)
		}
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	row := NoteRow{
		Path:      "hello.md",
		Checksum:  "abc123",
		Aliases:   []string{"Greeting"},
		UpdatedAt: time.Now(),
	}
	if err := db.UpsertNote(row, map[string]int{"other": 1}); err != nil {
		t.Fatalf("UpsertNote: %v", err)
	}
	cs, err := db.GetChecksum("hello.md")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
}

func TestResolvedLinks(t *testing.T) {
	db := testDB(t)
	upsert(t, db, "a.md", map[string]int{"b": 2, "missing": 1})
	upsert(t, db, "c.md", map[string]int{"b#Heading": 1, "b.md": 1})
	upsert(t, db, "b.md", nil)

	resolved, err := db.ResolvedLinks(context.Background())
	if err != nil {
		t.Fatalf("ResolvedLinks: %v", err)
	}
	if resolved["a.md"]["b.md"] != 2 {
		t.Errorf("a.md -> b.md = %d, want 2", resolved["a.md"]["b.md"])
	}
	if _, ok := resolved["a.md"]["missing"]; ok {
		t.Error("unresolved targets must be omitted")
	}
	if resolved["c.md"]["b.md"] != 2 {
		t.Errorf("c.md -> b.md = %d, want 2", resolved["c.md"]["b.md"])
	}
	if got := Sources(resolved); len(got) != 2 || got[0] != "a.md" || got[1] != "c.md" {
		t.Errorf("sources = %v", got)
	}
}

func TestFirstLinkpathDest(t *testing.T) {
	db := testDB(t)
	upsert(t, db, "notes/target.md", nil)
	upsert(t, db, "src.md", map[string]int{"target": 1})

	doc, ok, err := db.FirstLinkpathDest(context.Background(), "target", "src.md")
	if err != nil {
		t.Fatalf("FirstLinkpathDest: %v", err)
	}
	if !ok || doc.Path != "notes/target.md" || doc.Basename != "target" {
		t.Errorf("dest = %+v ok=%v", doc, ok)
	}

	if _, ok, _ := db.FirstLinkpathDest(context.Background(), "nope", "src.md"); ok {
		t.Error("unknown target should not resolve")
	}
}

func TestDeleteNote(t *testing.T) {
	db := testDB(t)
	upsert(t, db, "target.md", nil)
	upsert(t, db, "del.md", map[string]int{"target": 1})

	if err := db.DeleteNote("del.md"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	cs, _ := db.GetChecksum("del.md")
	if cs != "" {
		t.Errorf("deleted note still has checksum %q", cs)
	}
	resolved, _ := db.ResolvedLinks(context.Background())
	if len(resolved) != 0 {
		t.Errorf("expected no links after delete, got %v", resolved)
	}
}

func TestUpsertReplacesLinks(t *testing.T) {
	db := testDB(t)
	upsert(t, db, "x.md", nil)
	upsert(t, db, "y.md", nil)
	upsert(t, db, "up.md", map[string]int{"x": 1})
	upsert(t, db, "up.md", map[string]int{"y": 3})

	resolved, _ := db.ResolvedLinks(context.Background())
	if _, ok := resolved["up.md"]["x.md"]; ok {
		t.Error("old link should be removed on upsert")
	}
	if resolved["up.md"]["y.md"] != 3 {
		t.Errorf("up.md -> y.md = %d, want 3", resolved["up.md"]["y.md"])
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestSync_IndexesAndRemoves(t *testing.T) {
	db := testDB(t)
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	_ = store.Write("note.md", []byte("See [[target]] here."))
	_ = store.Write("target.md", []byte("# Target"))
	if err := Sync(db, store, logger); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	resolved, _ := db.ResolvedLinks(context.Background())
	if resolved["note.md"]["target.md"] != 1 {
		t.Errorf("resolved = %v", resolved)
	}

	_ = store.Delete("target.md")
	if err := Sync(db, store, logger); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	checksums, _ := db.AllChecksums()
	if _, ok := checksums["target.md"]; ok {
		t.Error("stale note should be removed")
	}
	resolved, _ = db.ResolvedLinks(context.Background())
	if len(resolved) != 0 {
		t.Errorf("link to removed note should no longer resolve: %v", resolved)
	}
}

func TestSync_AttachmentsResolve(t *testing.T) {
	db := testDB(t)
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	_ = store.Write("note.md", []byte("![[pic.png]] and [[docs/manual.pdf|the pdf]] and [[pic]]"))
	_ = store.Write("pic.png", []byte("png"))
	_ = store.Write("docs/manual.pdf", []byte("pdf"))
	if err := Sync(db, store, logger); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	doc, ok, err := db.FirstLinkpathDest(context.Background(), "pic.png", "note.md")
	if err != nil {
		t.Fatalf("FirstLinkpathDest: %v", err)
	}
	if !ok || doc.Path != "pic.png" {
		t.Errorf("pic.png = %+v ok=%v", doc, ok)
	}
	if doc, ok, _ := db.FirstLinkpathDest(context.Background(), "manual.pdf", "note.md"); !ok || doc.Path != "docs/manual.pdf" {
		t.Errorf("manual.pdf = %+v ok=%v", doc, ok)
	}
	if _, ok, _ := db.FirstLinkpathDest(context.Background(), "pic", "note.md"); ok {
		t.Error("attachments must not resolve without their extension")
	}

	resolved, _ := db.ResolvedLinks(context.Background())
	if resolved["note.md"]["pic.png"] != 1 || resolved["note.md"]["docs/manual.pdf"] != 1 {
		t.Errorf("resolved = %v", resolved)
	}

	_ = store.Delete("pic.png")
	if err := Sync(db, store, logger); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if _, ok, _ := db.FirstLinkpathDest(context.Background(), "pic.png", "note.md"); ok {
		t.Error("removed attachment should no longer resolve")
	}
}

func TestFirstLinkpathDest_Alias(t *testing.T) {
	db := testDB(t)
	if err := db.UpsertNote(NoteRow{Path: "ideas/big.md", Checksum: "x", Aliases: []string{"Big Idea"}}, nil); err != nil {
		t.Fatal(err)
	}
	upsert(t, db, "src.md", map[string]int{"big idea": 1})

	doc, ok, err := db.FirstLinkpathDest(context.Background(), "big idea#Part", "src.md")
	if err != nil {
		t.Fatalf("FirstLinkpathDest: %v", err)
	}
	if !ok || doc.Path != "ideas/big.md" {
		t.Errorf("alias dest = %+v ok=%v", doc, ok)
	}
	resolved, _ := db.ResolvedLinks(context.Background())
	if resolved["src.md"]["ideas/big.md"] != 1 {
		t.Errorf("resolved = %v", resolved)
	}

	// Re-indexing without the alias drops it.
	upsert(t, db, "ideas/big.md", nil)
	if _, ok, _ := db.FirstLinkpathDest(context.Background(), "big idea", "src.md"); ok {
		t.Error("dropped alias should no longer resolve")
	}
}

func TestResolverCachedUntilWrite(t *testing.T) {
	db := testDB(t)
	upsert(t, db, "a.md", nil)
	ctx := context.Background()

	r1, err := db.currentResolver(ctx)
	if err != nil {
		t.Fatal(err)
	}
	r2, _ := db.currentResolver(ctx)
	if r1 != r2 {
		t.Error("resolver should be reused between writes")
	}

	upsert(t, db, "b.md", nil)
	if _, ok, _ := db.FirstLinkpathDest(ctx, "b", "a.md"); !ok {
		t.Error("note added after caching should resolve")
	}
	if err := db.UpsertAttachment("c.png"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := db.FirstLinkpathDest(ctx, "c.png", "a.md"); !ok {
		t.Error("attachment added after caching should resolve")
	}
	if err := db.DeleteAttachment("c.png"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := db.FirstLinkpathDest(ctx, "c.png", "a.md"); ok {
		t.Error("deleted attachment should not resolve")
	}
}

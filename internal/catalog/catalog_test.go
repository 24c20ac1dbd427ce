package catalog

import (
	"testing"
)

func TestStartAndFinishBuild(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.StartBuild(64, 64, 8, 8); err != nil {
		t.Fatal(err)
	}

	complete, err := c.IsComplete(64, 64, 8, 8)
	if err != nil {
		t.Fatal(err)
	}
	if complete {
		t.Fatal("expected incomplete immediately after StartBuild")
	}

	if err := c.FinishBuild(64, 64, 8, 8, 31, 1<<40); err != nil {
		t.Fatal(err)
	}

	complete, err = c.IsComplete(64, 64, 8, 8)
	if err != nil {
		t.Fatal(err)
	}
	if !complete {
		t.Fatal("expected complete after FinishBuild")
	}

	meta, err := c.Get(64, 64, 8, 8)
	if err != nil {
		t.Fatal(err)
	}
	if meta == nil || meta.MaxPly != 31 || meta.ByteSize != 1<<40 {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	meta, err := c.Get(4, 4, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if meta != nil {
		t.Fatalf("expected nil for unknown board, got %+v", meta)
	}
}

func TestListReturnsAllBuilds(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.StartBuild(8, 8, 2, 2); err != nil {
		t.Fatal(err)
	}
	if err := c.StartBuild(16, 16, 4, 4); err != nil {
		t.Fatal(err)
	}

	builds, err := c.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(builds) != 2 {
		t.Fatalf("expected 2 builds, got %d", len(builds))
	}
}

func TestBoardDirNaming(t *testing.T) {
	prefix := t.TempDir()
	dir, err := BoardDir(prefix, 64, 64, 8, 8)
	if err != nil {
		t.Fatal(err)
	}
	want := prefix + "/board64x64/partition8x8"
	if dir != want {
		t.Fatalf("BoardDir() = %q, want %q", dir, want)
	}
}

package contentid

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDigestStableAcrossPaths(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "o01010.nc")
	b := filepath.Join(dir, "copy of o01010.nc")

	content := []byte("o01010 (SPACER)\nG00 X0 Z0\nM30\n")
	if err := os.WriteFile(a, content, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, content, 0o644); err != nil {
		t.Fatal(err)
	}

	digestA, err := Digest(a)
	if err != nil {
		t.Fatal(err)
	}
	digestB, err := Digest(b)
	if err != nil {
		t.Fatal(err)
	}
	if digestA != digestB {
		t.Fatalf("identical content produced different digests: %s vs %s", digestA, digestB)
	}
	if digestA != DigestBytes(content) {
		t.Fatal("file digest does not match in-memory digest of the same bytes")
	}
}

func TestDigestDiffersOnContent(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.nc")
	b := filepath.Join(dir, "b.nc")

	if err := os.WriteFile(a, []byte("o01010\nG00 X0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("o01010\nG00 X1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	digestA, err := Digest(a)
	if err != nil {
		t.Fatal(err)
	}
	digestB, err := Digest(b)
	if err != nil {
		t.Fatal(err)
	}
	if digestA == digestB {
		t.Fatal("different content produced equal digests")
	}
}

func TestDigest_MissingFile(t *testing.T) {
	if _, err := Digest(filepath.Join(t.TempDir(), "nope.nc")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

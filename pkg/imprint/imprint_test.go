package imprint

import (
	"testing"
	"time"

	"github.com/anvilfs/datim/pkg/fingerprint"
)

// S1 from the package's acceptance scenarios: a 6-byte file "foobar" at a
// fixed mtime has a known content fingerprint and composite fingerprint.
func TestForFile_S1(t *testing.T) {
	mtime, err := time.Parse(time.RFC3339Nano, "2022-05-22T20:48:16.7512146Z")
	if err != nil {
		t.Fatalf("parse mtime: %v", err)
	}

	contentFP := fingerprint.Of([]byte("foobar"))
	wantContentFP := "c3ab8ff13720e8ad9047dd39466b3c8974e592c2fa383d4a3960714caef0c4f2"
	if got := contentFP.String(); got != wantContentFP {
		t.Fatalf("content fingerprint = %s, want %s", got, wantContentFP)
	}

	im, err := ForFile("/foo.bar", mtime, contentFP)
	if err != nil {
		t.Fatalf("ForFile() error = %v", err)
	}

	if got := im.Miniprint(); got != "c56f2ad0" {
		t.Errorf("Miniprint() = %s, want c56f2ad0", got)
	}
}

func TestForDirectory_S2_Empty(t *testing.T) {
	mtime := time.Now()
	im, err := ForDirectory("/empty", mtime, fingerprint.Empty, fingerprint.Empty)
	if err != nil {
		t.Fatalf("ForDirectory() error = %v", err)
	}
	if im.ContentFingerprint() != fingerprint.Empty {
		t.Errorf("empty directory content fingerprint = %v, want Empty", im.ContentFingerprint())
	}
	if im.ChildrenFingerprint() != fingerprint.Empty {
		t.Errorf("empty directory children fingerprint = %v, want Empty", im.ChildrenFingerprint())
	}
}

func TestFoldContentFingerprints_S3(t *testing.T) {
	children := []Child{
		{Name: "foo.txt", ContentFingerprint: fingerprint.Of([]byte("foo"))},
		{Name: "bar.txt", ContentFingerprint: fingerprint.Of([]byte("bar"))},
	}
	SortChildren(children)

	if children[0].Name != "bar.txt" || children[1].Name != "foo.txt" {
		t.Fatalf("SortChildren did not sort lexicographically: %v", children)
	}

	var contentFPs []fingerprint.Hash
	for _, c := range children {
		contentFPs = append(contentFPs, c.ContentFingerprint)
	}
	got := FoldContentFingerprints(contentFPs)

	want := fingerprint.NewDigest().
		UpdateHash(fingerprint.Of([]byte("bar"))).
		UpdateHash(fingerprint.Of([]byte("foo"))).
		Finalize()

	if got != want {
		t.Errorf("FoldContentFingerprints() = %v, want %v", got, want)
	}
}

func TestForFile_RejectsPathWithNoFilename(t *testing.T) {
	if _, err := ForFile("/", time.Now(), fingerprint.Empty); err == nil {
		t.Error("ForFile(\"/\") expected InvalidPath error, got nil")
	}
}

func TestForFile_RejectsEmptyPath(t *testing.T) {
	if _, err := ForFile("", time.Now(), fingerprint.Empty); err == nil {
		t.Error("ForFile(\"\") expected error, got nil")
	}
}

func TestForDirectory_RootHasNoFilenameContribution(t *testing.T) {
	mtime := time.Now()
	withRootName, err := ForDirectory("/", mtime, fingerprint.Empty, fingerprint.Empty)
	if err != nil {
		t.Fatalf("ForDirectory(\"/\") error = %v", err)
	}

	// the composite fingerprint of the root must match manually composing
	// without any filename-hash contribution.
	want := composeFingerprint("", mtime, fingerprint.Empty, fingerprint.Empty, true)
	if withRootName.Fingerprint() != want {
		t.Errorf("root directory fingerprint = %v, want %v", withRootName.Fingerprint(), want)
	}
}

func TestStructuralSensitivity_MtimeChangesFingerprint(t *testing.T) {
	contentFP := fingerprint.Of([]byte("data"))
	t1 := time.Now()
	t2 := t1.Add(time.Second)

	i1, _ := ForFile("/a.txt", t1, contentFP)
	i2, _ := ForFile("/a.txt", t2, contentFP)

	if i1.Fingerprint() == i2.Fingerprint() {
		t.Error("changing mtime did not change composite fingerprint")
	}
}

func TestStructuralSensitivity_FilenameChangesFingerprint(t *testing.T) {
	contentFP := fingerprint.Of([]byte("data"))
	mtime := time.Now()

	i1, _ := ForFile("/a.txt", mtime, contentFP)
	i2, _ := ForFile("/b.txt", mtime, contentFP)

	if i1.Fingerprint() == i2.Fingerprint() {
		t.Error("changing filename did not change composite fingerprint")
	}
}

func TestTruncateToMillis(t *testing.T) {
	t1, _ := time.Parse(time.RFC3339Nano, "2022-05-22T20:48:16.7512146Z")
	truncated := TruncateToMillis(t1)
	if truncated.Nanosecond()%int(time.Millisecond) != 0 {
		t.Errorf("TruncateToMillis() left sub-millisecond precision: %v", truncated)
	}
}

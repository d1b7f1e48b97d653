package bundle

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"io"
	"strings"
	"testing"

	"github.com/monotek/duplyconf/internal/cli/compiler"
	"github.com/monotek/duplyconf/pkg/profile"
)

func testPlan(t *testing.T) compiler.Plan {
	t.Helper()
	spec := &profile.Spec{
		Name:              "db",
		Ensure:            profile.EnsurePresent,
		GPGEncryptionKeys: []string{"A1B2"},
		Source:            "/var/db",
		Target:            "sftp://backup.example.com/db",
		Volsize:           50,
		IncludeFilelist:   []string{"/var/db/data"},
		ExcludeByDefault:  true,
	}
	layout := compiler.Layout{ConfigRoot: "/etc/duply", KeysDir: "/etc/duply/keys"}
	return compiler.Compile(spec, layout)
}

func untar(t *testing.T, bundle []byte) map[string]string {
	t.Helper()
	zr, err := gzip.NewReader(bytes.NewReader(bundle))
	if err != nil {
		t.Fatalf("gzip open failed: %v", err)
	}
	entries := map[string]string{}
	tr := tar.NewReader(zr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("tar read failed: %v", err)
		}
		body, err := io.ReadAll(tr)
		if err != nil {
			t.Fatalf("tar body read failed: %v", err)
		}
		entries[hdr.Name] = string(body)
	}
	return entries
}

func TestBuildGzipBundleContainsRenderedProfile(t *testing.T) {
	plan := testPlan(t)
	bundle, err := Build(plan, "/etc/duply", EncodingTarGzip)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	entries := untar(t, bundle)
	for _, name := range []string{"db/", "db/conf", "db/exclude", "db/pre", "db/post"} {
		if _, ok := entries[name]; !ok {
			t.Fatalf("bundle missing entry %q, have %v", name, entries)
		}
	}
	if !strings.Contains(entries["db/conf"], "TARGET='sftp://backup.example.com/db'") {
		t.Fatalf("conf entry not rendered: %q", entries["db/conf"])
	}
	if !strings.Contains(entries["db/exclude"], "+ /var/db/data\n") {
		t.Fatalf("filelist entry not rendered: %q", entries["db/exclude"])
	}
	if !strings.HasPrefix(entries["db/pre"], "#!/bin/bash\n") {
		t.Fatalf("pre script not rendered: %q", entries["db/pre"])
	}
}

func TestBuildSkipsKeySymlinks(t *testing.T) {
	plan := testPlan(t)
	bundle, err := Build(plan, "/etc/duply", EncodingTarGzip)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	for name := range untar(t, bundle) {
		if strings.Contains(name, "gpgkey") {
			t.Fatalf("bundle carries host-specific key link %q", name)
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	plan := testPlan(t)
	first, err := Build(plan, "/etc/duply", EncodingTarGzip)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	second, err := Build(plan, "/etc/duply", EncodingTarGzip)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("equal plans produced different bundles")
	}
	if Digest(first) != Digest(second) {
		t.Fatalf("digests differ for equal bundles")
	}
}

func TestBuildRejectsAbsentProfile(t *testing.T) {
	plan := testPlan(t)
	plan.Ensure = profile.EnsureAbsent
	if _, err := Build(plan, "/etc/duply", EncodingTarGzip); err == nil {
		t.Fatalf("expected error for absent profile")
	}
}

func TestBuildRejectsUnknownEncoding(t *testing.T) {
	if _, err := Build(testPlan(t), "/etc/duply", "tar+brotli"); err == nil {
		t.Fatalf("expected error for unsupported encoding")
	}
}

func TestXzAndZstdEncodingsProduceOutput(t *testing.T) {
	plan := testPlan(t)
	for _, encoding := range []string{EncodingTarXz, EncodingTarZstd} {
		bundle, err := Build(plan, "/etc/duply", encoding)
		if err != nil {
			t.Fatalf("Build %s failed: %v", encoding, err)
		}
		if len(bundle) == 0 {
			t.Fatalf("Build %s produced empty bundle", encoding)
		}
	}
}

func TestDigestIsChecksumSpec(t *testing.T) {
	digest := Digest([]byte("bundle"))
	algo, hexPart, ok := strings.Cut(digest, ":")
	if !ok || algo != "blake3" || len(hexPart) != 64 {
		t.Fatalf("unexpected digest spec: %q", digest)
	}
}

func TestFileNamePerEncoding(t *testing.T) {
	cases := map[string]string{
		EncodingTarGzip: "db.tar.gz",
		EncodingTarXz:   "db.tar.xz",
		EncodingTarZstd: "db.tar.zst",
	}
	for encoding, want := range cases {
		got, err := FileName("db", encoding)
		if err != nil || got != want {
			t.Fatalf("FileName(db, %s) = %q err=%v", encoding, got, err)
		}
	}
	if _, err := FileName("db", "tar"); err == nil {
		t.Fatalf("expected error for unsupported encoding")
	}
}

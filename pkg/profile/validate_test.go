package profile

import (
	"errors"
	"strings"
	"testing"
)

func mustEntry(t *testing.T, yamlDoc, name string) Entry {
	t.Helper()
	cfg, err := ParseConfig([]byte(yamlDoc))
	if err != nil {
		t.Fatalf("ParseConfig returned error: %v", err)
	}
	entry, ok := cfg.Entry(name)
	if !ok {
		t.Fatalf("profile %q not found", name)
	}
	return entry
}

func buildErr(t *testing.T, yamlDoc, name string) *ValidationError {
	t.Helper()
	_, err := mustEntry(t, yamlDoc, name).Build()
	if err == nil {
		t.Fatalf("expected validation error for profile %q", name)
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
	return verr
}

func TestBuildValidProfile(t *testing.T) {
	doc := `
profiles:
  db:
    ensure: present
    source: /var/db
    target: sftp://backup.example.com/db
    gpg_encryption_keys: [K1, K2]
    gpg_signing_key: ABC123
    gpg_options: ["--compress-algo=bzip2"]
    full_if_older_than: 1M
    volsize: 100
    include_filelist: [/var/db/data]
    exclude_filelist: [/var/db/tmp]
    exclude_by_default: true
`
	spec, err := mustEntry(t, doc, "db").Build()
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if spec.Name != "db" || !spec.Ensure.Present() {
		t.Fatalf("unexpected spec identity: %+v", spec)
	}
	if len(spec.GPGEncryptionKeys) != 2 || spec.GPGEncryptionKeys[0] != "K1" {
		t.Fatalf("unexpected encryption keys: %v", spec.GPGEncryptionKeys)
	}
	if spec.Volsize != 100 {
		t.Fatalf("unexpected volsize: %d", spec.Volsize)
	}
	if !spec.ExcludeByDefault {
		t.Fatalf("exclude_by_default not carried over")
	}
}

func TestBuildRejectsUnknownEnsure(t *testing.T) {
	doc := `
profiles:
  db:
    ensure: maybe
    source: /var/db
    target: sftp://host/db
`
	verr := buildErr(t, doc, "db")
	if verr.Kind != KindInvalidEnsure {
		t.Fatalf("expected invalid ensure, got %s", verr.Kind)
	}
}

func TestEnsureDefaultsToPresent(t *testing.T) {
	doc := `
profiles:
  db:
    source: /var/db
    target: sftp://host/db
`
	spec, err := mustEntry(t, doc, "db").Build()
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if spec.Ensure != EnsurePresent {
		t.Fatalf("expected present, got %s", spec.Ensure)
	}
}

func TestBuildRejectsScalarKeyList(t *testing.T) {
	doc := `
profiles:
  db:
    source: /var/db
    target: sftp://host/db
    gpg_encryption_keys: K1
`
	verr := buildErr(t, doc, "db")
	if verr.Kind != KindInvalidType || verr.Field != "gpg_encryption_keys" {
		t.Fatalf("unexpected error: %+v", verr)
	}
}

func TestBuildRejectsMalformedSigningKey(t *testing.T) {
	doc := `
profiles:
  db:
    source: /var/db
    target: sftp://host/db
    gpg_signing_key: "not a key!"
`
	verr := buildErr(t, doc, "db")
	if verr.Kind != KindInvalidFormat || verr.Field != "gpg_signing_key" {
		t.Fatalf("unexpected error: %+v", verr)
	}
}

func TestBuildRequiresSourceAndTargetWhenPresent(t *testing.T) {
	noSource := `
profiles:
  db:
    ensure: present
    target: sftp://host/db
`
	verr := buildErr(t, noSource, "db")
	if verr.Kind != KindMissingField || verr.Field != "source" {
		t.Fatalf("unexpected error: %+v", verr)
	}

	noTarget := `
profiles:
  db:
    ensure: present
    source: /var/db
`
	verr = buildErr(t, noTarget, "db")
	if verr.Kind != KindMissingField || verr.Field != "target" {
		t.Fatalf("unexpected error: %+v", verr)
	}
}

func TestAbsentProfileSkipsRequiredFields(t *testing.T) {
	doc := `
profiles:
  db:
    ensure: absent
`
	spec, err := mustEntry(t, doc, "db").Build()
	if err != nil {
		t.Fatalf("absent profile should validate without source/target: %v", err)
	}
	if spec.Ensure.Present() {
		t.Fatalf("expected absent ensure")
	}
}

func TestBuildRejectsFractionalVolsize(t *testing.T) {
	doc := `
profiles:
  db:
    source: /var/db
    target: sftp://host/db
    volsize: 50.5
`
	verr := buildErr(t, doc, "db")
	if verr.Kind != KindInvalidType || verr.Field != "volsize" {
		t.Fatalf("unexpected error: %+v", verr)
	}
}

func TestVolsizeDefaultsWhenOmitted(t *testing.T) {
	doc := `
profiles:
  db:
    source: /var/db
    target: sftp://host/db
`
	spec, err := mustEntry(t, doc, "db").Build()
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if spec.Volsize != DefaultVolsize {
		t.Fatalf("expected default volsize %d, got %d", DefaultVolsize, spec.Volsize)
	}
}

func TestValidationOrderReportsEnsureFirst(t *testing.T) {
	// Both ensure and volsize are broken; ensure is checked first.
	doc := `
profiles:
  db:
    ensure: bogus
    volsize: 50.5
`
	verr := buildErr(t, doc, "db")
	if verr.Kind != KindInvalidEnsure {
		t.Fatalf("expected ensure error first, got %+v", verr)
	}
}

func TestValidationOrderChecksSigningKeyBeforeSource(t *testing.T) {
	doc := `
profiles:
  db:
    ensure: present
    gpg_signing_key: "bad key"
`
	verr := buildErr(t, doc, "db")
	if verr.Field != "gpg_signing_key" {
		t.Fatalf("expected signing key error before missing source, got %+v", verr)
	}
}

func TestValidationErrorMentionsProfileName(t *testing.T) {
	doc := `
profiles:
  offsite:
    ensure: nope
`
	verr := buildErr(t, doc, "offsite")
	if got := verr.Error(); !strings.Contains(got, "offsite") {
		t.Fatalf("error should mention profile name: %s", got)
	}
}

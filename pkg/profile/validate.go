package profile

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultVolsize is the duplicity volume size applied when a profile does
// not set one.
const DefaultVolsize = 50

var signingKeyPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// buildSpec validates the raw profile and returns the typed spec. Checks run
// in a fixed order and stop at the first failure, so a profile with several
// mistakes reports the same error every run:
//
//	ensure, gpg_encryption_keys, gpg_signing_key, gpg_options,
//	source, target, volsize, include_filelist, exclude_filelist
//
// Required-field checks for source and target only apply to present
// profiles; an absent profile needs nothing beyond its name.
func buildSpec(name string, raw rawSpec) (*Spec, error) {
	ensure, err := parseEnsure(name, raw.Ensure)
	if err != nil {
		return nil, err
	}

	encryptionKeys, err := decodeStringList(name, "gpg_encryption_keys", raw.GPGEncryptionKeys)
	if err != nil {
		return nil, err
	}

	if raw.GPGSigningKey != "" && !signingKeyPattern.MatchString(raw.GPGSigningKey) {
		return nil, invalidFormat(name, "gpg_signing_key")
	}

	options, err := decodeStringList(name, "gpg_options", raw.GPGOptions)
	if err != nil {
		return nil, err
	}

	if ensure.Present() && strings.TrimSpace(raw.Source) == "" {
		return nil, missingField(name, "source")
	}
	if ensure.Present() && strings.TrimSpace(raw.Target) == "" {
		return nil, missingField(name, "target")
	}

	volsize, err := decodeVolsize(name, raw.Volsize)
	if err != nil {
		return nil, err
	}

	include, err := decodeStringList(name, "include_filelist", raw.IncludeFilelist)
	if err != nil {
		return nil, err
	}
	exclude, err := decodeStringList(name, "exclude_filelist", raw.ExcludeFilelist)
	if err != nil {
		return nil, err
	}

	return &Spec{
		Name:              name,
		Ensure:            ensure,
		GPGEncryptionKeys: encryptionKeys,
		GPGSigningKey:     raw.GPGSigningKey,
		GPGPassphrase:     raw.GPGPassphrase,
		GPGOptions:        options,
		Source:            raw.Source,
		Target:            raw.Target,
		TargetUsername:    raw.TargetUsername,
		TargetPassword:    raw.TargetPassword,
		FullIfOlderThan:   raw.FullIfOlderThan,
		Volsize:           volsize,
		IncludeFilelist:   include,
		ExcludeFilelist:   exclude,
		ExcludeByDefault:  raw.ExcludeByDefault,
		PreFragments:      raw.PreFragments,
		PostFragments:     raw.PostFragments,
	}, nil
}

// parseEnsure turns the ensure string into the closed enum once, at the
// boundary. An empty value defaults to present.
func parseEnsure(profile, value string) (Ensure, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(EnsurePresent):
		return EnsurePresent, nil
	case string(EnsureAbsent):
		return EnsureAbsent, nil
	default:
		return "", invalidEnsure(profile)
	}
}

func decodeStringList(profile, field string, node yaml.Node) ([]string, error) {
	if node.IsZero() {
		return nil, nil
	}
	if node.Kind != yaml.SequenceNode {
		return nil, invalidType(profile, field)
	}
	var out []string
	if err := node.Decode(&out); err != nil {
		return nil, invalidType(profile, field)
	}
	return out, nil
}

func decodeVolsize(profile string, node yaml.Node) (int, error) {
	if node.IsZero() {
		return DefaultVolsize, nil
	}
	if node.Kind != yaml.ScalarNode || node.Tag != "!!int" {
		return 0, invalidType(profile, "volsize")
	}
	var v int
	if err := node.Decode(&v); err != nil {
		return 0, invalidType(profile, "volsize")
	}
	return v, nil
}

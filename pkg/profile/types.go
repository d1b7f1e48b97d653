// Package profile provides the duply profile model: the YAML configuration
// document, the validated per-profile spec, and the validation rules that
// gate compilation.
package profile

import "gopkg.in/yaml.v3"

// Ensure is the desired lifecycle state of a whole profile.
type Ensure string

const (
	EnsurePresent Ensure = "present"
	EnsureAbsent  Ensure = "absent"
)

// Present reports whether the profile should exist on the target host.
func (e Ensure) Present() bool { return e == EnsurePresent }

// Spec is one validated backup profile. All fields are plain typed values;
// the YAML shape checks have already run by the time a Spec exists.
type Spec struct {
	// Name identifies the profile and namespaces every derived path.
	Name string

	Ensure Ensure

	// GPGEncryptionKeys lists key ids the backup is encrypted for, in order.
	GPGEncryptionKeys []string

	// GPGSigningKey optionally names the key backups are signed with.
	GPGSigningKey string

	// GPGPassphrase is placed verbatim into the rendered conf file.
	GPGPassphrase string

	GPGOptions []string

	Source         string
	Target         string
	TargetUsername string
	TargetPassword string

	// FullIfOlderThan is a duplicity duration expression such as "1M".
	FullIfOlderThan string

	// Volsize is the duplicity volume size in whole megabytes.
	Volsize int

	IncludeFilelist  []string
	ExcludeFilelist  []string
	ExcludeByDefault bool

	// PreFragments and PostFragments contribute extra script fragments by
	// sort key, merged with the compiler's own shebang fragment.
	PreFragments  map[string]string
	PostFragments map[string]string
}

// rawSpec mirrors the per-profile YAML before any shape checks run. Fields
// whose type the validator must inspect stay as raw nodes so sequence and
// integer checks can report in the documented order.
type rawSpec struct {
	Ensure            string            `yaml:"ensure"`
	GPGEncryptionKeys yaml.Node         `yaml:"gpg_encryption_keys"`
	GPGSigningKey     string            `yaml:"gpg_signing_key"`
	GPGPassphrase     string            `yaml:"gpg_passphrase"`
	GPGOptions        yaml.Node         `yaml:"gpg_options"`
	Source            string            `yaml:"source"`
	Target            string            `yaml:"target"`
	TargetUsername    string            `yaml:"target_username"`
	TargetPassword    string            `yaml:"target_password"`
	FullIfOlderThan   string            `yaml:"full_if_older_than"`
	Volsize           yaml.Node         `yaml:"volsize"`
	IncludeFilelist   yaml.Node         `yaml:"include_filelist"`
	ExcludeFilelist   yaml.Node         `yaml:"exclude_filelist"`
	ExcludeByDefault  bool              `yaml:"exclude_by_default"`
	PreFragments      map[string]string `yaml:"pre_fragments"`
	PostFragments     map[string]string `yaml:"post_fragments"`
}

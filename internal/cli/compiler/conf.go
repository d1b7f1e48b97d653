package compiler

import (
	"fmt"
	"strings"

	"github.com/monotek/duplyconf/pkg/profile"
)

// renderConf produces the duply conf file for a profile: flat KEY='value'
// shell assignments covering every scalar and secret parameter. Secrets are
// placed verbatim; only shell quoting is applied.
func renderConf(spec *profile.Spec) string {
	var b strings.Builder

	b.WriteString("# Managed by duplyconf. Manual edits will be overwritten.\n\n")

	fmt.Fprintf(&b, "GPG_KEYS_ENC=%s\n", shellQuote(strings.Join(spec.GPGEncryptionKeys, ",")))
	signingKey := spec.GPGSigningKey
	if signingKey == "" {
		// duply treats the literal "disabled" as "do not sign".
		signingKey = "disabled"
	}
	fmt.Fprintf(&b, "GPG_KEY_SIGN=%s\n", shellQuote(signingKey))
	fmt.Fprintf(&b, "GPG_PW=%s\n", shellQuote(spec.GPGPassphrase))
	fmt.Fprintf(&b, "GPG_OPTS=%s\n", shellQuote(strings.Join(spec.GPGOptions, " ")))
	b.WriteString("\n")

	fmt.Fprintf(&b, "TARGET=%s\n", shellQuote(spec.Target))
	fmt.Fprintf(&b, "TARGET_USER=%s\n", shellQuote(spec.TargetUsername))
	fmt.Fprintf(&b, "TARGET_PASS=%s\n", shellQuote(spec.TargetPassword))
	fmt.Fprintf(&b, "SOURCE=%s\n", shellQuote(spec.Source))
	b.WriteString("\n")

	if spec.FullIfOlderThan != "" {
		fmt.Fprintf(&b, "MAX_FULLBKP_AGE=%s\n", spec.FullIfOlderThan)
		b.WriteString(`DUPL_PARAMS="$DUPL_PARAMS --full-if-older-than $MAX_FULLBKP_AGE "` + "\n")
	}
	fmt.Fprintf(&b, "VOLSIZE=%d\n", spec.Volsize)
	b.WriteString(`DUPL_PARAMS="$DUPL_PARAMS --volsize $VOLSIZE "` + "\n")

	return b.String()
}

// shellQuote single-quotes a value for sourcing by duply's shell reader.
func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `'\''`) + "'"
}

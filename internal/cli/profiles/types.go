// Package profiles loads duplyconf configuration documents from local paths
// or http(s) URLs. The model itself lives in pkg/profile; this package
// re-exports the commonly used names for the CLI.
package profiles

import pkgprofile "github.com/monotek/duplyconf/pkg/profile"

type Config = pkgprofile.Config
type Entry = pkgprofile.Entry
type Settings = pkgprofile.Settings
type Spec = pkgprofile.Spec
type ValidationError = pkgprofile.ValidationError

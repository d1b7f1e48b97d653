package shared

// Process exit codes. Scripts driving duplyconf branch on these, so the
// values are part of the CLI contract.
const (
	ExitOK               = 0
	ExitConfigError      = 2
	ExitValidationFailed = 3
	ExitApplyFailed      = 4
	ExitApplyConflict    = 5
	ExitExportFailed     = 6
	ExitKeyImportFailed  = 7
)

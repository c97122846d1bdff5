package exitcode

const (
	Success         = 0
	UsageError      = 1
	ValidationError = 2
	DBConnError     = 3
	ArchiveError    = 4
	ProcessError    = 5
	PartialSuccess  = 6
)

package exitcode

const (
	Success        = 0
	UsageError     = 1
	SourceNotFound = 2
	SchemaError    = 3
	DBConnError    = 4
	WriteError     = 5
	ScoreError     = 6
	ExportError    = 7
)

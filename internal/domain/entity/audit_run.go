package entity

import "time"

// AuditRun registro de una importación (sesión import → distribución).
type AuditRun struct {
	ID               string
	SourceFolder     string
	StartedAt        time.Time
	FinishedAt       time.Time
	ArchivesFound    int
	InvoicesImported int
	Failures         int
	Mutations        RuleMutationCount
}

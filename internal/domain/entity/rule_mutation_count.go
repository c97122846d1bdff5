package entity

// RuleMutationCount cantidad de modificaciones aplicadas por cada regla a un documento.
type RuleMutationCount struct {
	CNES          int
	DocumentType  int
	ProtocolDate  int
	ProviderType  int
	OwnResource   int
	PackageCode   int
	CoverageMerge int
	Reallocation  int
}

// Total suma de todas las reglas.
func (c RuleMutationCount) Total() int {
	return c.CNES + c.DocumentType + c.ProtocolDate + c.ProviderType +
		c.OwnResource + c.PackageCode + c.CoverageMerge + c.Reallocation
}

// Add acumula otro conteo (resumen de una corrida).
func (c *RuleMutationCount) Add(o RuleMutationCount) {
	c.CNES += o.CNES
	c.DocumentType += o.DocumentType
	c.ProtocolDate += o.ProtocolDate
	c.ProviderType += o.ProviderType
	c.OwnResource += o.OwnResource
	c.PackageCode += o.PackageCode
	c.CoverageMerge += o.CoverageMerge
	c.Reallocation += o.Reallocation
}

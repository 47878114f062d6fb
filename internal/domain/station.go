package domain

// Station is pure reference data: a named stop with a unique code.
type Station struct {
	ID   string
	Name string
	Code string
}

// FareRule prices one directional (source, destination) station pair.
type FareRule struct {
	ID                 string
	SourceStation      string
	DestinationStation string
	Fare               float64
}

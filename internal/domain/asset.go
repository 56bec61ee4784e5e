package domain

// Asset is a registry record identified by its asset code and unit number (NUP).
type Asset struct {
	Code     string
	NUP      string
	Name     string
	Location string
}

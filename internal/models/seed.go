package models

// SeedSpot is a spot entry of a seed file. Techniques and Species hold ids.
type SeedSpot struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Lat         *float64 `yaml:"lat"`
	Lon         *float64 `yaml:"lon"`
	State       string   `yaml:"state"`
	Techniques  []string `yaml:"techniques"`
	Species     []string `yaml:"species"`
}

// SeedFile is the catalog fixture loaded by the seed command
type SeedFile struct {
	Techniques []Technique `yaml:"techniques"`
	Species    []Species   `yaml:"species"`
	Spots      []SeedSpot  `yaml:"spots"`
	Catches    []Catch     `yaml:"catches"`
}

// SeedResult counts imported rows
type SeedResult struct {
	Techniques int `json:"techniques"`
	Species    int `json:"species"`
	Spots      int `json:"spots"`
	Catches    int `json:"catches"`
}

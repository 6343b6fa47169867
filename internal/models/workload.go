package models

import "fmt"

// Workload describes what content a controller is asked to produce.
type Workload struct {
	Category string `yaml:"category" json:"category"`
	Style    string `yaml:"style" json:"style"`
}

// String returns a compact identifier suitable for logs and filenames.
func (w Workload) String() string {
	return fmt.Sprintf("%s/%s", w.Category, w.Style)
}

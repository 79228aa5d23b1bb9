package domain

// Metadata is an unstructured annotation container for records. Consumers
// must tolerate missing keys.
type Metadata map[string]any

func (m Metadata) Clone() Metadata {
	if m == nil {
		return Metadata{}
	}
	copy := make(Metadata, len(m))
	for k, v := range m {
		copy[k] = v
	}
	return copy
}

// Code stamps the version of one software package involved in a run.
type Code struct {
	Package string `json:"package"`
	Version string `json:"version"`
}

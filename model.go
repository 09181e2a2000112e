package rill

// Model describes one entry of the model catalogue.
type Model struct {
	Name        string
	Size        int64 // bytes, 0 when not downloaded
	Downloaded  bool
	Family      string
	Type        string
	Description string
}

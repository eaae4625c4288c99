package types

// Chunk is a named group of modules emitted together
type Chunk struct {
	Name string
	// Modules are module paths in emission order (dependencies first)
	Modules []string
	Entry   bool
	// Size is the total byte size of the chunk's modules
	Size int
}

// Contains reports whether the chunk holds the module at path
func (c Chunk) Contains(path string) bool {
	for _, m := range c.Modules {
		if m == path {
			return true
		}
	}
	return false
}

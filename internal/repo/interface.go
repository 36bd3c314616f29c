package repo

// Locator finds a repository checkout that carries its own agent configs.
type Locator interface {
	// FindRoot returns the first search path containing config/agents.
	// ok is false when klotho runs outside a checkout.
	FindRoot() (root string, ok bool)
}

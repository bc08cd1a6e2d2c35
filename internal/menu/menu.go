// ABOUTME: Contextual menu controller for per-message and per-partner action menus
// ABOUTME: Keeps at most one open menu per kind with toggle semantics

package menu

// Kind selects an independent family of menus.
type Kind int

const (
	// Message menus hang off a single chat message.
	Message Kind = iota
	// Partner menus hang off a roster entry.
	Partner

	kindCount
)

func (k Kind) String() string {
	switch k {
	case Message:
		return "message"
	case Partner:
		return "partner"
	default:
		return "unknown"
	}
}

// Controller tracks which item, if any, has its menu open for each kind.
// It is not safe for concurrent use; callers serialize access.
type Controller struct {
	open [kindCount]string
}

// New returns a controller with every menu closed.
func New() *Controller {
	return &Controller{}
}

// IsOpen reports whether the menu of the given kind is open for id.
func (c *Controller) IsOpen(kind Kind, id string) bool {
	if !valid(kind) || id == "" {
		return false
	}
	return c.open[kind] == id
}

// Open returns the id whose menu of the given kind is open.
func (c *Controller) Open(kind Kind) (string, bool) {
	if !valid(kind) {
		return "", false
	}
	id := c.open[kind]
	return id, id != ""
}

// Toggle closes the menu if it is open for id, otherwise opens it for id,
// replacing any other open menu of the same kind. It reports whether the
// menu for id is open afterwards.
func (c *Controller) Toggle(kind Kind, id string) bool {
	if !valid(kind) || id == "" {
		return false
	}
	if c.open[kind] == id {
		c.open[kind] = ""
		return false
	}
	c.open[kind] = id
	return true
}

// Close closes the menu of the given kind. It reports whether one was open.
func (c *Controller) Close(kind Kind) bool {
	if !valid(kind) || c.open[kind] == "" {
		return false
	}
	c.open[kind] = ""
	return true
}

// CloseAll closes every menu. It reports whether any was open.
func (c *Controller) CloseAll() bool {
	closed := false
	for k := range c.open {
		if c.open[k] != "" {
			c.open[k] = ""
			closed = true
		}
	}
	return closed
}

func valid(kind Kind) bool {
	return kind >= 0 && kind < kindCount
}

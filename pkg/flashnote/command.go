package flashnote

// Command is a discrete application operation with its specific options.
// Parse returns one; Main routes it to the matching App method.
type Command interface {
	// Name returns the command identifier used for routing.
	Name() string
}

// RunCommand starts the HTTP server.
type RunCommand struct{}

func (c *RunCommand) Name() string { return "run" }

// MigrateCommand initializes or updates the backend schema.
type MigrateCommand struct{}

func (c *MigrateCommand) Name() string { return "migrate" }

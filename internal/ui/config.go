package ui

// Config contains window and input related settings.
type Config struct {
	Title string // window title
	Scale int    // integer upscaling factor
	Speed int    // instructions executed per 60 Hz frame

	// Reset is called for the reset key, it has to reset the machine and
	// load the program again.
	Reset func() error
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.Title == "" {
		c.Title = "retrochip8"
	}
	if c.Scale <= 0 {
		c.Scale = 10
	}
	if c.Speed <= 0 {
		c.Speed = 10
	}
}

// Package options contains the program options.
package options

// Parameters contains file path options.
type Parameters struct {
	Input  string `flag:"i" usage:"input ROM file"`
	Offset string `flag:"offset" usage:"load offset of the program in hex" default:"0x200"`
	PNG    string `flag:"outpng" usage:"write a PNG snapshot of the final framebuffer (headless)"`
	Expect string `flag:"expect" usage:"expected CRC32 of the final framebuffer in hex (headless)"`
}

// Flags contains behavior options.
type Flags struct {
	Disasm   bool   `flag:"disasm" usage:"print the disassembly of the program and exit"`
	Dump     bool   `flag:"dump" usage:"dump registers, stack and memory after the run"`
	Headless bool   `flag:"headless" usage:"run without a window"`
	Seed     uint64 `flag:"seed" usage:"seed of the random number generator (default: time based)"`
	Trace    bool   `flag:"trace" usage:"log every executed instruction"`
	Debug    bool   `flag:"debug" usage:"enable debug logging"`
	Quiet    bool   `flag:"q" usage:"quiet mode"`
}

// Emulation contains pacing and presentation options.
type Emulation struct {
	Frames int `flag:"frames" usage:"number of frames to run in headless mode" default:"600"`
	Speed  int `flag:"speed" usage:"instructions executed per 60 Hz frame" default:"10"`
	Scale  int `flag:"scale" usage:"window and PNG scale factor" default:"10"`
}

// Program options of the interpreter.
type Program struct {
	Parameters
	Flags
	Emulation

	LoadOffset uint16 // parsed Offset
	SeedSet    bool   // Seed was passed explicitly
}

// Disassembler defines options to control the disassembler output.
type Disassembler struct {
	HexComments    bool // output the instruction bytes as comment
	OffsetComments bool // output the address as comment
}

// NewDisassembler returns a new options instance with default options.
func NewDisassembler() Disassembler {
	return Disassembler{
		HexComments:    true,
		OffsetComments: true,
	}
}

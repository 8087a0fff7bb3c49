package hprose

// Environment variable names
const (
	// EnvMode is the environment variable name for the member mode.
	// Accepted values: "member", "field", "property".
	// Default: member
	EnvMode = "HPROSE_MODE"

	// EnvSimple is the environment variable name for simple mode. Any value
	// accepted by strconv.ParseBool.
	// Default: false
	EnvSimple = "HPROSE_SIMPLE"

	// EnvMaxDepth is the environment variable name for the nesting limit.
	// Default: 512
	EnvMaxDepth = "HPROSE_MAX_DEPTH"
)

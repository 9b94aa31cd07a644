package credentials

// Config holds the sealing key for registry credentials.
type Config struct {
	// Key is a base64 encoded 32 byte key. Without it no credentials can be stored or read.
	Key string `mapstructure:"key" default:""`
}

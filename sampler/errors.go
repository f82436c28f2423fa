package sampler

// ConfigError reports a Config value outside its allowed range.
//
// The underlying error (if any) can be accessed via errors.Unwrap.
type ConfigError struct {
	Field string
	Value int
	Msg   string
	cause error
}

func (e *ConfigError) Error() string {
	if e.Msg == "" && e.cause != nil {
		return e.cause.Error()
	}
	return e.Msg
}

func (e *ConfigError) Unwrap() error { return e.cause }

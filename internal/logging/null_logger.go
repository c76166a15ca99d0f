package logging

// NullLogger discards everything. Library callers that pass no logger get one.
type NullLogger struct{}

func NewNullLogger() *NullLogger { return &NullLogger{} }

func (*NullLogger) Verbose(string, ...any) {}
func (*NullLogger) Info(string, ...any)    {}
func (*NullLogger) Warn(string, ...any)    {}
func (*NullLogger) Error(string, ...any)   {}

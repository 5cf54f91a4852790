package platform

// TestCase is one (input, expected output) pair. Input is either a single value or an
// ordered sequence of positional arguments. A nil ExpectedOutput means "no value".
type TestCase struct {
	Input          any `json:"input"           yaml:"input"`
	ExpectedOutput any `json:"expected_output" yaml:"expected_output"`
}

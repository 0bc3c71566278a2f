package vision

import "fmt"

// Kind classifies extraction failures so the bot can word its reply: network
// trouble reads differently to the user than a model that returned garbage.
type Kind int

const (
	// KindNetwork covers transport failures and non-2xx statuses.
	KindNetwork Kind = iota
	// KindBadResponse covers structurally unusable API responses: blocked
	// prompts, missing candidates, empty content.
	KindBadResponse
	// KindBadJSON means the model answered but not with decodable JSON.
	KindBadJSON
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindBadResponse:
		return "bad_response"
	case KindBadJSON:
		return "bad_json"
	}
	return "unknown"
}

type ExtractError struct {
	Kind Kind
	Err  error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("receipt extraction (%s): %v", e.Kind, e.Err)
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}

func newError(kind Kind, format string, args ...any) *ExtractError {
	return &ExtractError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

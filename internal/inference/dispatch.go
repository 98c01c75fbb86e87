package inference

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Function-call surface for the natural-language front end. The front end
// turns user utterances into one of four named calls with JSON arguments;
// Dispatch executes it and returns a JSON-serializable result.
const (
	FnGetHistory        = "get_history"
	FnLastSeen          = "last_seen"
	FnPredictLocation   = "predict_location"
	FnExplainPrediction = "explain_prediction"
)

// callArgs is the union of arguments across the four functions. Timestamps
// are RFC 3339 strings; at_time defaults to now when omitted.
type callArgs struct {
	Label  string `json:"label"`
	Since  string `json:"since,omitempty"`
	Until  string `json:"until,omitempty"`
	AtTime string `json:"at_time,omitempty"`
}

// Dispatch maps a named function call to the corresponding engine
// operation. Unknown names and malformed arguments are errors; data-absence
// failures from the engine propagate typed so the caller can phrase them.
func (e *Engine) Dispatch(name string, args json.RawMessage) (any, error) {
	var a callArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, fmt.Errorf("dispatch %s: bad arguments: %w", name, err)
		}
	}
	if a.Label == "" {
		return nil, fmt.Errorf("dispatch %s: label is required", name)
	}

	switch name {
	case FnGetHistory:
		since, err := parseTimeArg(a.Since)
		if err != nil {
			return nil, fmt.Errorf("dispatch %s: since: %w", name, err)
		}
		until, err := parseTimeArg(a.Until)
		if err != nil {
			return nil, fmt.Errorf("dispatch %s: until: %w", name, err)
		}
		return e.History(a.Label, since, until), nil

	case FnLastSeen:
		return e.LastSeen(a.Label), nil

	case FnPredictLocation:
		at, err := parseTimeArg(a.AtTime)
		if err != nil {
			return nil, fmt.Errorf("dispatch %s: at_time: %w", name, err)
		}
		loc, err := e.PredictLocation(a.Label, deref(at))
		if err != nil {
			return nil, err
		}
		return loc, nil

	case FnExplainPrediction:
		at, err := parseTimeArg(a.AtTime)
		if err != nil {
			return nil, fmt.Errorf("dispatch %s: at_time: %w", name, err)
		}
		return e.ExplainPrediction(a.Label, deref(at))

	default:
		return nil, fmt.Errorf("unknown function: %s", name)
	}
}

// parseTimeArg parses an optional RFC 3339 timestamp. A bare trailing "Z"
// and fractional seconds are both fine.
func parseTimeArg(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func deref(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

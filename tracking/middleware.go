package tracking

import (
	"context"
	"encoding/json"

	"github.com/skosovsky/mcptoolkit"
)

// Middleware records estimated tokens for every dispatch: arguments as input, the JSON-encoded
// result as output (0 when the call fails). The operation is the tool identifier.
func Middleware(t *Tracker) mcptoolkit.Middleware {
	return func(next mcptoolkit.Invoker) mcptoolkit.Invoker {
		return func(ctx context.Context, call mcptoolkit.Call) (mcptoolkit.Result, error) {
			res, err := next(ctx, call)
			out := 0
			if err == nil {
				out = estimateJSON(res)
			}
			t.Track(estimateJSON(call.Args), out, call.ToolID)
			return res, err
		}
	}
}

func estimateJSON(v any) int {
	data, err := json.Marshal(v)
	if err != nil {
		return 0
	}
	return EstimateTokens(string(data))
}

package api

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/vidshelfapp/vidshelf-core/internal/http/response"
)

// EnvelopeTransformer wraps every huma response body in the shared
// {"v", "success", "data" | "error"} envelope.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	switch body := v.(type) {
	case *APIError:
		return response.Failure(body.Code, body.Message, body.Details), nil
	case huma.StatusError:
		return response.Failure(string(response.CodeForStatus(body.GetStatus())), body.Error(), nil), nil
	case []byte:
		return v, nil
	default:
		return response.Ok(v), nil
	}
}

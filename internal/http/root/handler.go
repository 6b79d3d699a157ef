package root

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/hello-service/internal/platform/logging"
)

// Greeting is the body served at the root path.
const Greeting = "Hello World"

const contentType = "text/plain"

// Output is the plain-text greeting response.
type Output struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// Register wires the root route into the provided API.
func Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-root",
		Method:      http.MethodGet,
		Path:        "/",
		Summary:     "Greeting",
		Description: "Returns the static greeting as plain text.",
		Responses: map[string]*huma.Response{
			"200": {
				Description: "Greeting",
				Content: map[string]*huma.MediaType{
					contentType: {Schema: &huma.Schema{Type: huma.TypeString}},
				},
			},
		},
	}, getHandler)
}

func getHandler(ctx context.Context, _ *struct{}) (*Output, error) {
	logging.LogDebug(ctx, "root greeting")
	return &Output{ContentType: contentType, Body: []byte(Greeting)}, nil
}

// Package apiclient fetches the API responses that test cases validate.
package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/at-ishikawa/apijudge/internal/jsonvalue"
)

const DefaultTimeout = 10 * time.Second

type Client struct {
	httpClient *resty.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Client{httpClient: client}
}

type Request struct {
	Method   string
	Endpoint string
	Headers  map[string]string
	// Payload is sent as a JSON body when valid.
	Payload jsonvalue.Value
}

type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Elapsed    time.Duration
	// JSON is the parsed body; invalid when the body is not JSON.
	JSON jsonvalue.Value
}

func (r Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

var supportedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

func IsSupportedMethod(method string) bool {
	return supportedMethods[strings.ToUpper(method)]
}

// Do sends one request. Only transport failures are errors; any HTTP status
// is returned as a Response.
func (c *Client) Do(ctx context.Context, req Request) (Response, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	if !IsSupportedMethod(method) {
		return Response{}, fmt.Errorf("unsupported method %q", req.Method)
	}

	r := c.httpClient.R().
		EnableTrace().
		SetContext(ctx).
		SetHeaders(req.Headers)
	if req.Payload.IsValid() {
		r.SetHeader("Content-Type", "application/json").SetBody(req.Payload)
	}

	res, err := r.Execute(method, req.Endpoint)
	if err != nil {
		return Response{}, fmt.Errorf("client.R.Execute(%s %s) > %w", method, req.Endpoint, err)
	}

	response := Response{
		StatusCode: res.StatusCode(),
		Headers:    res.Header(),
		Body:       res.Body(),
		Elapsed:    res.Time(),
	}
	if parsed, err := jsonvalue.Parse(res.Body()); err == nil {
		response.JSON = parsed
	}
	return response, nil
}

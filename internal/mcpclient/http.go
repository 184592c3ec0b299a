package mcpclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/haasonsaas/agentsynth/pkg/models"
)

// jsonRPCRequest mirrors the MCP wire format (§6): a JSON-RPC 2.0 envelope
// over a single streamable-HTTP endpoint. Grounded directly on
// internal/mcp/transport_http.go's HTTPTransport.Call.
type jsonRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type jsonRPCResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// HTTPClient is the real MCP transport: aistudio headers-mode (plain HTTP
// headers carry auth) or Smithery URL-signed-config-mode (a base64 config
// blob embedded in the URL plus a profile id).
type HTTPClient struct {
	url     string
	headers map[string]string
	http    *http.Client
}

// NewHTTPClient builds an HTTPClient for info's call_info, resolving the
// Smithery URL-signing scheme if PythonSDKURL is set (§4.11 "base64 config
// plus profile for Smithery").
func NewHTTPClient(info models.MCPInfo) (*HTTPClient, error) {
	ci := info.CallInfo

	url := ci.URL
	headers := ci.Headers

	if ci.PythonSDKURL != "" {
		signed, err := signSmitheryURL(ci.PythonSDKURL, ci.PythonSDKConfig, os.Getenv("SMITHERY_API_KEY"), ci.SmitheryProfile)
		if err != nil {
			return nil, fmt.Errorf("mcpclient: sign smithery url: %w", err)
		}
		url = signed
	}

	if url == "" {
		return nil, fmt.Errorf("mcpclient: no URL resolved for MCP group %q", info.BaseInfo.GroupInfo.GroupID)
	}

	return &HTTPClient{
		url:     url,
		headers: headers,
		http:    &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// signSmitheryURL substitutes {config_b64}/{smithery_api_key}/{smithery_profile}
// placeholders into pythonSDKURL, matching Smithery's documented URL-signing
// scheme (§6: "URL formed by substituting {config_b64} (base64 of
// python_sdk_config), {smithery_api_key}, {smithery_profile} into
// python_sdk_url, appending &profile={profile} if missing"). New code — no
// teacher component covers this; built in the style of internal/mcp/types.go's
// config-validation helpers.
func signSmitheryURL(pythonSDKURL string, config map[string]any, apiKey, profile string) (string, error) {
	raw, err := json.Marshal(config)
	if err != nil {
		return "", err
	}
	configB64 := base64.URLEncoding.EncodeToString(raw)

	replacer := strings.NewReplacer(
		"{config_b64}", configB64,
		"{smithery_api_key}", apiKey,
		"{smithery_profile}", profile,
	)
	signed := replacer.Replace(pythonSDKURL)

	if profile != "" && !strings.Contains(signed, "profile=") {
		sep := "?"
		if strings.Contains(signed, "?") {
			sep = "&"
		}
		signed += sep + "profile=" + profile
	}
	return signed, nil
}

// ListTools is a no-op for the real transport: the tool catalog is supplied
// up front in MCPInfo.BaseInfo.ToolList rather than discovered per call.
func (c *HTTPClient) ListTools(ctx context.Context) ([]models.ToolDefinition, error) {
	return nil, nil
}

// CallTools dispatches each call as its own JSON-RPC "tools/call" request,
// in order, isolating one call's failure into its own result string rather
// than failing the whole batch.
func (c *HTTPClient) CallTools(ctx context.Context, calls []models.ToolCall) ([]string, error) {
	results := make([]string, len(calls))
	for i, call := range calls {
		r, err := c.callOne(ctx, call.Function.Name, call.Function.Arguments)
		if err != nil {
			results[i] = fmt.Sprintf("[ERROR: %s]", err.Error())
			continue
		}
		results[i] = r
	}
	return results, nil
}

// callOne invokes name via a single JSON-RPC "tools/call" request.
func (c *HTTPClient) callOne(ctx context.Context, name string, argumentsJSON string) (string, error) {
	var args json.RawMessage = []byte(argumentsJSON)
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}

	params, err := json.Marshal(map[string]any{
		"name":      name,
		"arguments": json.RawMessage(args),
	})
	if err != nil {
		return "", err
	}

	req := jsonRPCRequest{
		JSONRPC: "2.0",
		ID:      uuid.New().String(),
		Method:  "tools/call",
		Params:  params,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("mcpclient: call %s: %w", name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("mcpclient: HTTP %d: %s", resp.StatusCode, string(raw))
	}

	var rpcResp jsonRPCResponse
	if err := json.Unmarshal(raw, &rpcResp); err != nil {
		return "", fmt.Errorf("mcpclient: decode response: %w", err)
	}
	if rpcResp.Error != nil {
		return "", fmt.Errorf("mcpclient: tool error: %s", rpcResp.Error.Message)
	}
	return string(rpcResp.Result), nil
}

// Close is a no-op: each call is an independent HTTP request with no
// persistent session to release.
func (c *HTTPClient) Close() error {
	return nil
}

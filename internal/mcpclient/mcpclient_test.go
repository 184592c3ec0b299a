package mcpclient

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haasonsaas/agentsynth/pkg/models"
)

func TestSignSmitheryURL_AppendsProfileWhenMissing(t *testing.T) {
	signed, err := signSmitheryURL("https://server.smithery.ai/mcp", map[string]any{"apiKey": "x"}, "key-1", "prof-1")
	require.NoError(t, err)
	assert.Contains(t, signed, "profile=prof-1")
}

func TestSignSmitheryURL_SubstitutesPlaceholders(t *testing.T) {
	tmpl := "https://server.smithery.ai/mcp?config={config_b64}&key={smithery_api_key}&profile={smithery_profile}"
	signed, err := signSmitheryURL(tmpl, map[string]any{"apiKey": "x"}, "key-1", "prof-1")
	require.NoError(t, err)
	assert.Contains(t, signed, "key=key-1")
	assert.Contains(t, signed, "profile=prof-1")
	assert.NotContains(t, signed, "{config_b64}")
}

func TestSignSmitheryURL_DoesNotDoubleAppendProfile(t *testing.T) {
	tmpl := "https://server.smithery.ai/mcp?profile={smithery_profile}"
	signed, err := signSmitheryURL(tmpl, map[string]any{}, "key-1", "prof-1")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(signed, "profile="))
}

func TestMcpToolsToDefinitions(t *testing.T) {
	specs := []models.MCPToolSpec{{Name: "search", Description: "search the web"}}
	defs := mcpToolsToDefinitions(specs)
	assert.Len(t, defs, 1)
	assert.Equal(t, "search", defs[0].Name)
}

func TestNew_SelectsMockForMockTool(t *testing.T) {
	info := models.MCPInfo{CallInfo: models.CallInfo{MockTool: true}}
	client, err := New(context.Background(), info, Deps{}, "")
	require.NoError(t, err)
	_, ok := client.(*MockClient)
	assert.True(t, ok)
}

func TestNew_SelectsHTTPForAIStudioHeaders(t *testing.T) {
	info := models.MCPInfo{CallInfo: models.CallInfo{Headers: map[string]string{"Authorization": "Bearer x"}, URL: "https://aistudio.example/mcp"}}
	client, err := New(context.Background(), info, Deps{}, "")
	require.NoError(t, err)
	_, ok := client.(*HTTPClient)
	assert.True(t, ok)
}

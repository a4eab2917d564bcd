package quotepipe

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var testMCPImpl = &mcp.Implementation{Name: "quotepipe-test", Version: "0.1.0"}

func mcpSession(t *testing.T) *mcp.ClientSession {
	t.Helper()
	pipe := New(Config{})
	srv := mcp.NewServer(testMCPImpl, nil)
	pipe.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func mcpCall(t *testing.T, session *mcp.ClientSession, name string, args any) *mcp.CallToolResult {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	return result
}

func mcpText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatal("expected TextContent")
	}
	return tc.Text
}

func TestMCP_Formats(t *testing.T) {
	session := mcpSession(t)

	result := mcpCall(t, session, "quotes_formats", map[string]any{})
	if result.IsError {
		t.Fatalf("tool error: %s", mcpText(t, result))
	}
	var resp struct {
		Formats []string `json:"formats"`
	}
	if err := json.Unmarshal([]byte(mcpText(t, result)), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if strings.Join(resp.Formats, ",") != ".csv,.docx,.html,.odt,.pdf,.txt" {
		t.Errorf("formats: %v", resp.Formats)
	}
}

func TestMCP_Ingest(t *testing.T) {
	session := mcpSession(t)
	txt, csv := corpusFiles(t)

	result := mcpCall(t, session, "quotes_ingest", map[string]any{"paths": []string{txt, csv}})
	if result.IsError {
		t.Fatalf("tool error: %s", mcpText(t, result))
	}
	var resp struct {
		Count  int     `json:"count"`
		Quotes []Quote `json:"quotes"`
	}
	if err := json.Unmarshal([]byte(mcpText(t, result)), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Count != 3 || resp.Quotes[2].Author != "Spot" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestMCP_IngestUnsupported(t *testing.T) {
	session := mcpSession(t)

	result := mcpCall(t, session, "quotes_ingest", map[string]any{"paths": []string{"notes.rtf"}})
	if !result.IsError {
		t.Fatal("expected tool error")
	}
	if !strings.Contains(mcpText(t, result), "unsupported format") {
		t.Errorf("error text: %s", mcpText(t, result))
	}
}

func TestMCP_Detect(t *testing.T) {
	session := mcpSession(t)

	result := mcpCall(t, session, "quotes_detect", map[string]any{"path": "quotes.docx"})
	if result.IsError {
		t.Fatalf("tool error: %s", mcpText(t, result))
	}
	if !strings.Contains(mcpText(t, result), `".docx"`) {
		t.Errorf("detect: %s", mcpText(t, result))
	}

	result = mcpCall(t, session, "quotes_detect", map[string]any{"path": "quotes.xls"})
	if !result.IsError {
		t.Error("expected tool error for .xls")
	}
}

package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/handoff/internal/rpc"
	"github.com/starford/handoff/internal/storage"
	"github.com/starford/handoff/internal/testutil"
)

func testServer(t *testing.T) (*Server, *storage.Memory) {
	t.Helper()
	eng, store := testutil.TestEngine(t)
	return New(rpc.NewDispatcher(eng, testutil.DiscardLogger()), "test"), store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	result, err := srv.tool(name)(context.Background(), req)
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func createArgs() map[string]any {
	return map[string]any{
		"type": "standard",
		"initialData": map[string]any{
			"date": "2024-04-01",
			"time": "08:00 UTC",
			"currentState": map[string]any{
				"workingOn": "Importer", "status": "Blocked", "nextStep": "Ask ops",
			},
			"environmentStatus": map[string]any{"details": map[string]any{"Database": "❌"}},
		},
	}
}

func TestCreateAndRead(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, rpc.MethodCreate, createArgs())
	if r.IsError {
		t.Fatalf("create failed: %s", resultText(r))
	}
	var created struct {
		HandoffID string `json:"handoff_id"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	r = callTool(t, srv, rpc.MethodRead, map[string]any{"handoff_id": created.HandoffID})
	if r.IsError {
		t.Fatalf("read failed: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), "Database: ❌") {
		t.Errorf("read result = %s", resultText(r))
	}
}

func TestUpdateAndList(t *testing.T) {
	srv, store := testServer(t)
	r := callTool(t, srv, rpc.MethodCreate, createArgs())
	var created struct {
		HandoffID string `json:"handoff_id"`
	}
	_ = json.Unmarshal([]byte(resultText(r)), &created)

	r = callTool(t, srv, rpc.MethodUpdate, map[string]any{
		"handoff_id": created.HandoffID,
		"updates": []any{
			map[string]any{"section": "issues", "content": map[string]any{"critical": []any{"🔥 replica lag"}}},
		},
	})
	if r.IsError {
		t.Fatalf("update failed: %s", resultText(r))
	}
	data, _ := store.Read("active/" + created.HandoffID + ".md")
	if !strings.Contains(string(data), "- ❗ 🔥 replica lag") {
		t.Errorf("document =\n%s", data)
	}

	r = callTool(t, srv, rpc.MethodList, map[string]any{"status": "active"})
	if !strings.Contains(resultText(r), `"priority": 4`) {
		t.Errorf("list = %s", resultText(r))
	}
}

func TestReadMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, rpc.MethodRead, map[string]any{"handoff_id": "2024-01-01-x"})
	if !r.IsError {
		t.Error("expected error for missing handoff")
	}
}

func TestValidationError(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, rpc.MethodList, map[string]any{"status": "someday"})
	if !r.IsError {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(resultText(r), "status") {
		t.Errorf("message = %q", resultText(r))
	}
}

func TestToolsRegistered(t *testing.T) {
	srv, _ := testServer(t)
	resp := srv.MCPServer().HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	out, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range rpc.Methods {
		if !strings.Contains(string(out), `"name":"`+m+`"`) {
			t.Errorf("tool %s not registered", m)
		}
	}
}

func TestTemplateResource(t *testing.T) {
	srv, _ := testServer(t)
	resp := srv.MCPServer().HandleMessage(context.Background(), []byte(`{
		"jsonrpc":"2.0","id":1,"method":"resources/read",
		"params":{"uri":"`+QuickTemplateURI+`"}
	}`))
	out, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "Quick Handoff") {
		t.Errorf("resource response = %s", out)
	}
}

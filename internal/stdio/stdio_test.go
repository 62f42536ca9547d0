package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/starford/handoff/internal/rpc"
	"github.com/starford/handoff/internal/testutil"
)

func serve(t *testing.T, input string) []map[string]any {
	t.Helper()
	eng, _ := testutil.TestEngine(t)
	d := rpc.NewDispatcher(eng, testutil.DiscardLogger())

	var out bytes.Buffer
	if err := Serve(context.Background(), d, strings.NewReader(input), &out, testutil.DiscardLogger()); err != nil {
		t.Fatalf("Serve: %v", err)
	}

	var responses []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("decode %q: %v", line, err)
		}
		responses = append(responses, m)
	}
	return responses
}

func errorMessage(t *testing.T, resp map[string]any) string {
	t.Helper()
	e, ok := resp["error"].(map[string]any)
	if !ok {
		t.Fatalf("no error in %v", resp)
	}
	return e["message"].(string)
}

func TestServe_OneResponsePerLine(t *testing.T) {
	input := `{"jsonrpc":"2.0","method":"list_handoffs","params":{"status":"all"},"id":1}

{"jsonrpc":"2.0","method":"list_handoffs","params":{"status":"archived"},"id":"two"}
`
	responses := serve(t, input)
	if len(responses) != 2 {
		t.Fatalf("responses = %d, want 2", len(responses))
	}
	if responses[0]["id"] != float64(1) || responses[1]["id"] != "two" {
		t.Errorf("ids = %v, %v", responses[0]["id"], responses[1]["id"])
	}
	result, ok := responses[0]["result"].(map[string]any)
	if !ok {
		t.Fatalf("result = %v", responses[0])
	}
	if handoffs, ok := result["handoffs"].([]any); !ok || len(handoffs) != 0 {
		t.Errorf("handoffs = %v", result["handoffs"])
	}
}

func TestServe_UnknownMethod(t *testing.T) {
	responses := serve(t, `{"jsonrpc":"2.0","method":"explode","id":3}`+"\n")
	if len(responses) != 1 {
		t.Fatalf("responses = %d", len(responses))
	}
	if got := errorMessage(t, responses[0]); got != "Unknown method: explode" {
		t.Errorf("message = %q", got)
	}
	if responses[0]["id"] != float64(3) {
		t.Errorf("id = %v", responses[0]["id"])
	}
}

func TestServe_MalformedLineKeepsGoing(t *testing.T) {
	input := "not json\n" + `{"method":"list_handoffs","params":{"status":"active"}}` + "\n"
	responses := serve(t, input)
	if len(responses) != 2 {
		t.Fatalf("responses = %d, want 2", len(responses))
	}
	if _, ok := responses[0]["error"]; !ok {
		t.Errorf("first response = %v, want error", responses[0])
	}
	if id, ok := responses[0]["id"]; !ok || id != nil {
		t.Errorf("malformed id = %v, want null", id)
	}
	if _, ok := responses[1]["result"]; !ok {
		t.Errorf("second response = %v, want result", responses[1])
	}
	if responses[1]["id"] != nil {
		t.Errorf("absent id = %v, want null", responses[1]["id"])
	}
}

func TestServe_CreateThenRead(t *testing.T) {
	eng, _ := testutil.TestEngine(t)
	d := rpc.NewDispatcher(eng, testutil.DiscardLogger())

	create := `{"method":"create_handoff","id":1,"params":{"type":"standard","initialData":{"date":"2024-02-02","time":"10:00 UTC","currentState":{"workingOn":"w","status":"s","nextStep":"n"},"environmentStatus":{"details":{}}}}}`
	var out bytes.Buffer
	if err := Serve(context.Background(), d, strings.NewReader(create+"\n"), &out, testutil.DiscardLogger()); err != nil {
		t.Fatal(err)
	}
	var created struct {
		Result struct {
			HandoffID string `json:"handoff_id"`
		} `json:"result"`
	}
	if err := json.Unmarshal(out.Bytes(), &created); err != nil {
		t.Fatal(err)
	}

	out.Reset()
	read := `{"method":"read_handoff","id":2,"params":{"handoff_id":"` + created.Result.HandoffID + `"}}`
	if err := Serve(context.Background(), d, strings.NewReader(read+"\n"), &out, testutil.DiscardLogger()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), `**Date**: 2024-02-02`) {
		t.Errorf("read response = %s", out.String())
	}
}

func TestServe_OversizedLineKeepsGoing(t *testing.T) {
	input := strings.Repeat("x", maxLineBytes+1024) + "\n" +
		`{"method":"list_handoffs","params":{"status":"active"},"id":7}` + "\n"
	responses := serve(t, input)
	if len(responses) != 2 {
		t.Fatalf("responses = %d, want 2", len(responses))
	}
	e, ok := responses[0]["error"].(map[string]any)
	if !ok {
		t.Fatalf("first response = %v, want error", responses[0])
	}
	if e["code"] != float64(rpc.CodeServerError) {
		t.Errorf("code = %v", e["code"])
	}
	if responses[0]["id"] != nil {
		t.Errorf("oversized id = %v, want null", responses[0]["id"])
	}
	if responses[1]["id"] != float64(7) {
		t.Errorf("second response = %v, want id 7", responses[1])
	}
	if _, ok := responses[1]["result"]; !ok {
		t.Errorf("second response = %v, want result", responses[1])
	}
}

func TestReadLine(t *testing.T) {
	br := bufio.NewReaderSize(strings.NewReader("short\n"+strings.Repeat("y", 40)+"\nlast"), 16)

	line, err := readLine(br, 32)
	if err != nil || string(line) != "short\n" {
		t.Fatalf("first = %q, %v", line, err)
	}
	if _, err := readLine(br, 32); !errors.Is(err, errLineTooLong) {
		t.Fatalf("second err = %v, want errLineTooLong", err)
	}
	line, err = readLine(br, 32)
	if err != nil || string(line) != "last" {
		t.Fatalf("third = %q, %v", line, err)
	}
	if _, err := readLine(br, 32); !errors.Is(err, io.EOF) {
		t.Fatalf("fourth err = %v, want EOF", err)
	}
}

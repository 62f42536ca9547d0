package rpc_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/starford/handoff/internal/apperr"
	"github.com/starford/handoff/internal/handoff"
	"github.com/starford/handoff/internal/rpc"
	"github.com/starford/handoff/internal/testutil"
)

const createJSON = `{
	"type": "standard",
	"initialData": {
		"date": "2024-01-15",
		"time": "14:30 UTC",
		"currentState": {"workingOn": "Auth", "status": "Started", "nextStep": "Tests"},
		"environmentStatus": {"details": {"Server": "✅", "Cache": "❌"}}
	}
}`

func testDispatcher(t *testing.T) *rpc.Dispatcher {
	t.Helper()
	eng, _ := testutil.TestEngine(t)
	return rpc.NewDispatcher(eng, testutil.DiscardLogger())
}

func create(t *testing.T, d *rpc.Dispatcher) string {
	t.Helper()
	res, err := d.Call(context.Background(), rpc.MethodCreate, json.RawMessage(createJSON))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return res.(*handoff.CreateResult).HandoffID
}

func TestCall_CreateAndReadFull(t *testing.T) {
	d := testDispatcher(t)
	id := create(t, d)

	res, err := d.Call(context.Background(), rpc.MethodRead, json.RawMessage(`{"handoff_id":"`+id+`"}`))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	read, ok := res.(*handoff.ReadResult)
	if !ok {
		t.Fatalf("result type = %T", res)
	}
	if !strings.Contains(read.Content, "- **Cache: ❌ [Status details]") {
		t.Errorf("env not applied:\n%s", read.Content)
	}
	if read.Metadata["date"] != "2024-01-15" {
		t.Errorf("metadata = %v", read.Metadata)
	}
}

func TestCall_ReadSummaryKeepsSectionOrder(t *testing.T) {
	d := testDispatcher(t)
	id := create(t, d)

	res, err := d.Call(context.Background(), rpc.MethodRead,
		json.RawMessage(`{"handoff_id":"`+id+`","format":"summary"}`))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	out, err := json.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	got := string(out)
	order := []string{`"projectContext"`, `"recentProgress"`, `"activeWork"`, `"environmentStatus"`, `"knownIssues"`}
	last := -1
	for _, key := range order {
		i := strings.Index(got, key)
		if i < 0 || i < last {
			t.Fatalf("summary keys out of order: %s", got)
		}
		last = i
	}
}

func TestCall_UpdateKeepsFieldOrder(t *testing.T) {
	eng, store := testutil.TestEngine(t)
	d := rpc.NewDispatcher(eng, testutil.DiscardLogger())
	id := create(t, d)

	params := `{"handoff_id":"` + id + `","updates":[{"section":"context","content":{"Zeta":"last key first","Alpha":"second"}}]}`
	res, err := d.Call(context.Background(), rpc.MethodUpdate, json.RawMessage(params))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := res.(*handoff.UpdateResult).ModifiedSections; len(got) != 1 || got[0] != "context" {
		t.Errorf("modified = %v", got)
	}
	data, _ := store.Read("active/" + id + ".md")
	if !strings.Contains(string(data), "### Zeta\nlast key first\n\n### Alpha\nsecond\n") {
		t.Errorf("context section:\n%s", data)
	}
}

func TestCall_UnknownMethod(t *testing.T) {
	d := testDispatcher(t)
	_, err := d.Call(context.Background(), "delete_everything", nil)
	var unknown *rpc.UnknownMethodError
	if !errors.As(err, &unknown) {
		t.Fatalf("err = %v, want UnknownMethodError", err)
	}
	if err.Error() != "Unknown method: delete_everything" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestCall_ValidationFields(t *testing.T) {
	d := testDispatcher(t)
	_, err := d.Call(context.Background(), rpc.MethodCreate,
		json.RawMessage(`{"type":"huge","initialData":{"date":"2024-01-15"}}`))
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	e := rpc.NewError(err)
	if e.Code != rpc.CodeServerError || e.Data.Kind != "validation" {
		t.Errorf("error = %+v", e)
	}
	for _, field := range []string{"type", "initialData.time", "initialData.currentState.workingOn"} {
		if _, ok := e.Data.Fields[field]; !ok {
			t.Errorf("fields missing %q: %v", field, e.Data.Fields)
		}
	}
}

func TestCall_EmptyRequiredStrings(t *testing.T) {
	d := testDispatcher(t)
	cases := []struct {
		method string
		params string
		field  string
	}{
		{rpc.MethodArchive, `{"handoff_id":"2024-01-01-a","metadata":{"reason":"","tags":[],"completionStatus":"success"}}`, "metadata.reason"},
		{rpc.MethodComplete, `{"handoff_id":"2024-01-01-a","completionData":{"endTime":"","progress":[],"nextSteps":[]}}`, "completionData.endTime"},
	}
	for _, tc := range cases {
		t.Run(tc.method, func(t *testing.T) {
			_, err := d.Call(context.Background(), tc.method, json.RawMessage(tc.params))
			if !errors.Is(err, apperr.ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
			if _, ok := rpc.NewError(err).Data.Fields[tc.field]; !ok {
				t.Errorf("fields = %v, want %q", rpc.NewError(err).Data.Fields, tc.field)
			}
		})
	}
}

func TestCall_RejectsPathTraversal(t *testing.T) {
	d := testDispatcher(t)
	_, err := d.Call(context.Background(), rpc.MethodRead, json.RawMessage(`{"handoff_id":"../secret"}`))
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestCall_MalformedParams(t *testing.T) {
	d := testDispatcher(t)
	_, err := d.Call(context.Background(), rpc.MethodList, json.RawMessage(`{"status": 7}`))
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestCall_NotFoundKind(t *testing.T) {
	d := testDispatcher(t)
	_, err := d.Call(context.Background(), rpc.MethodArchive, json.RawMessage(`{
		"handoff_id": "2024-01-01-missing",
		"metadata": {"reason": "x", "tags": [], "completionStatus": "blocked"}
	}`))
	if got := rpc.NewError(err).Data.Kind; got != "not_found" {
		t.Errorf("kind = %q, want not_found", got)
	}
}

func TestHandle_EchoesID(t *testing.T) {
	d := testDispatcher(t)
	resp := d.Handle(context.Background(), rpc.Request{Method: rpc.MethodList, Params: json.RawMessage(`{"status":"all"}`), ID: json.RawMessage(`"abc"`)}, json.RawMessage("1"))
	if string(resp.ID) != `"abc"` {
		t.Errorf("id = %s", resp.ID)
	}
	if resp.Error != nil {
		t.Fatalf("error = %+v", resp.Error)
	}

	resp = d.Handle(context.Background(), rpc.Request{Method: "nope"}, json.RawMessage("1"))
	if string(resp.ID) != "1" {
		t.Errorf("default id = %s", resp.ID)
	}
	out, _ := json.Marshal(resp)
	want := `{"jsonrpc":"2.0","error":{"code":-32000,"message":"Unknown method: nope","data":{"kind":"not_found"}},"id":1}`
	if string(out) != want {
		t.Errorf("envelope =\n%s\nwant\n%s", out, want)
	}
}

func TestDecodeRequest(t *testing.T) {
	req, err := rpc.DecodeRequest([]byte(`{"jsonrpc":"2.0","method":"list_handoffs","params":{"status":"active"},"id":7}`))
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	if req.Method != rpc.MethodList || string(req.ID) != "7" {
		t.Errorf("req = %+v", req)
	}

	if _, err := rpc.DecodeRequest([]byte(`{not json`)); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("malformed err = %v", err)
	}
	if _, err := rpc.DecodeRequest([]byte(`{"id":1}`)); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("missing method err = %v", err)
	}
}

package core

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"testing"

	"github.com/trackhub/trackhub/internal/youtrack"
)

// fakeBackend scripts transport behavior for core tests.
type fakeBackend struct {
	getFn    func(path string, params url.Values, out any) error
	postFn   func(path string, body, out any) error
	deleteFn func(path string) error
	calls    []string
}

func (f *fakeBackend) Get(_ context.Context, path string, params url.Values, out any) error {
	f.calls = append(f.calls, "GET "+path)
	if f.getFn == nil {
		return nil
	}
	return f.getFn(path, params, out)
}

func (f *fakeBackend) Post(_ context.Context, path string, body, out any) error {
	f.calls = append(f.calls, "POST "+path)
	if f.postFn == nil {
		return nil
	}
	return f.postFn(path, body, out)
}

func (f *fakeBackend) Delete(_ context.Context, path string) error {
	f.calls = append(f.calls, "DELETE "+path)
	if f.deleteFn == nil {
		return nil
	}
	return f.deleteFn(path)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// fill unmarshals a JSON literal into a response target.
func fill(t *testing.T, out any, raw string) {
	t.Helper()
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		t.Fatalf("fill response: %v", err)
	}
}

func TestApplyPostsCommand(t *testing.T) {
	var got youtrack.CommandRequest
	fb := &fakeBackend{
		postFn: func(path string, body, _ any) error {
			if path != "commands" {
				t.Errorf("path = %q, want commands", path)
			}
			got = body.(youtrack.CommandRequest)
			return nil
		},
	}
	a := NewApplier(fb, testLogger())

	if err := a.Apply(context.Background(), "2-1", FieldCommand("Priority", "Critical")); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got.Query != "Priority: Critical" {
		t.Errorf("query = %q, want Priority: Critical", got.Query)
	}
	if len(got.Issues) != 1 || got.Issues[0].ID != "2-1" {
		t.Errorf("issues = %+v, want one ref to 2-1", got.Issues)
	}
}

func TestApplyWrapsFailure(t *testing.T) {
	fb := &fakeBackend{postFn: func(string, any, any) error {
		return errors.New("POST commands HTTP 400: unknown value")
	}}
	a := NewApplier(fb, testLogger())

	err := a.Apply(context.Background(), "2-1", FieldCommand("Priority", "Urgentt"))
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("error type = %T, want *CommandError", err)
	}
	if cmdErr.Command != "Priority: Urgentt" {
		t.Errorf("command = %q", cmdErr.Command)
	}
	if want := "Priority: Urgentt: POST commands HTTP 400: unknown value"; err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestApplyCombinedJoins(t *testing.T) {
	var got string
	fb := &fakeBackend{postFn: func(_ string, body, _ any) error {
		got = body.(youtrack.CommandRequest).Query
		return nil
	}}
	a := NewApplier(fb, testLogger())

	cmds := []Command{FieldCommand("Type", "Task"), FieldCommand("Priority", "Normal")}
	if err := a.ApplyCombined(context.Background(), "81-5", cmds); err != nil {
		t.Fatalf("ApplyCombined: %v", err)
	}
	if got != "Type: Task Priority: Normal" {
		t.Errorf("combined = %q", got)
	}
	if len(fb.calls) != 1 {
		t.Errorf("calls = %d, want 1", len(fb.calls))
	}
}

func TestApplyCombinedEmptyBatch(t *testing.T) {
	fb := &fakeBackend{}
	a := NewApplier(fb, testLogger())

	if err := a.ApplyCombined(context.Background(), "81-5", nil); err != nil {
		t.Fatalf("ApplyCombined: %v", err)
	}
	if len(fb.calls) != 0 {
		t.Errorf("calls = %v, want none", fb.calls)
	}
}

func TestApplyEachIsolatesFailures(t *testing.T) {
	fb := &fakeBackend{postFn: func(_ string, body, _ any) error {
		if strings.HasPrefix(body.(youtrack.CommandRequest).Query, "Priority:") {
			return errors.New("POST commands HTTP 400: unknown value")
		}
		return nil
	}}
	a := NewApplier(fb, testLogger())

	cmds := []Command{
		FieldCommand("State", "In Progress"),
		FieldCommand("Priority", "Urgentt"),
		FieldCommand("Assignee", "alice"),
	}
	results := a.ApplyEach(context.Background(), "2-1", cmds)
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	if results[0].Succeeded != true || results[1].Succeeded != false || results[2].Succeeded != true {
		t.Fatalf("unexpected outcomes: %+v", results)
	}
	if len(fb.calls) != 3 {
		t.Fatalf("calls = %d, want 3 (one per command)", len(fb.calls))
	}
	if !strings.Contains(results[1].Error, "Priority: Urgentt") {
		t.Fatalf("failure must carry command text: %+v", results[1])
	}
}

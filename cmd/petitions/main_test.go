package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Sternrassler/uk-petitions/internal/testutil"
	"github.com/Sternrassler/uk-petitions/pkg/petition"
)

// syncBuffer is a bytes.Buffer safe for the concurrent writes of a running
// monitor.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "petitions-config")
	if err != nil {
		panic(err)
	}
	os.Setenv("XDG_CONFIG_HOME", dir)

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func runCmd(t *testing.T, ctx context.Context, out io.Writer, args ...string) error {
	t.Helper()

	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	return cmd.ExecuteContext(ctx)
}

func newMock(t *testing.T, records ...petition.Raw) *testutil.MockPetitions {
	t.Helper()
	mock := testutil.NewMockPetitions(records...)
	t.Cleanup(mock.Close)
	return mock
}

func TestListCommand(t *testing.T) {
	mock := newMock(t,
		testutil.NewRaw(1, petition.StateOpen, 10),
		testutil.NewRaw(2, petition.StateClosed, 20),
		testutil.NewRaw(3, petition.StateOpen, 30),
	)
	mock.SetPageSize(2)

	var out bytes.Buffer
	err := runCmd(t, context.Background(), &out, "list", "--base-url", mock.URL(), "--interval", "1ms")
	if err != nil {
		t.Fatalf("list error = %v", err)
	}

	got := out.String()
	for _, want := range []string{"Action: Petition 1", "Action: Petition 2", "Signatures: 30", "3 petitions"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if n := mock.RequestCount("/petitions.json"); n != 2 {
		t.Errorf("list requests = %d, want 2", n)
	}
}

func TestListCommand_JSON(t *testing.T) {
	mock := newMock(t,
		testutil.NewRaw(1, petition.StateOpen, 10),
		testutil.NewRaw(2, petition.StateOpen, 20),
	)

	var out bytes.Buffer
	err := runCmd(t, context.Background(), &out, "list", "--base-url", mock.URL(), "--interval", "1ms", "-o", "json")
	if err != nil {
		t.Fatalf("list error = %v", err)
	}

	dec := json.NewDecoder(&out)
	var ids []petition.ID
	for dec.More() {
		var p petition.Petition
		if err := dec.Decode(&p); err != nil {
			t.Fatalf("decode: %v", err)
		}
		ids = append(ids, p.ID)
	}
	if len(ids) != 2 {
		t.Errorf("decoded %d petitions, want 2", len(ids))
	}
}

func TestListCommand_DetailWithCountries(t *testing.T) {
	mock := newMock(t, testutil.NewRaw(1, petition.StateOpen, 10))

	var out bytes.Buffer
	err := runCmd(t, context.Background(), &out,
		"list", "--base-url", mock.URL(), "--interval", "1ms", "--detail", "--countries", "3")
	if err != nil {
		t.Fatalf("list error = %v", err)
	}

	if !strings.Contains(out.String(), "United Kingdom: 10 (100.0000%)") {
		t.Errorf("output missing country breakdown:\n%s", out.String())
	}
	if n := mock.RequestCount("/petitions/1.json"); n != 1 {
		t.Errorf("detail requests = %d, want 1", n)
	}
}

func TestListCommand_PageFailure(t *testing.T) {
	mock := newMock(t)
	mock.SetResponse("/petitions.json", testutil.MockResponse{StatusCode: http.StatusNotFound, Body: "{}"})

	err := runCmd(t, context.Background(), io.Discard, "list", "--base-url", mock.URL(), "--interval", "1ms")
	if err == nil {
		t.Fatal("expected an error when the first page cannot be loaded")
	}
}

func TestHotCommand(t *testing.T) {
	mock := newMock(t,
		testutil.NewRaw(1, petition.StateOpen, 10),
		testutil.NewRaw(2, petition.StateOpen, 20),
		testutil.NewRaw(3, petition.StateOpen, 30),
	)
	mock.SetPageSize(2)

	var out bytes.Buffer
	if err := runCmd(t, context.Background(), &out, "hot", "--base-url", mock.URL()); err != nil {
		t.Fatalf("hot error = %v", err)
	}

	if !strings.Contains(out.String(), "2 petitions") {
		t.Errorf("hot should stop after the first page:\n%s", out.String())
	}
	if n := mock.RequestCount("/petitions.json"); n != 1 {
		t.Errorf("list requests = %d, want 1", n)
	}
}

func TestInvalidConfiguration(t *testing.T) {
	err := runCmd(t, context.Background(), io.Discard, "hot", "--log-level", "loud")
	if err == nil || !strings.Contains(err.Error(), "log.level") {
		t.Errorf("error = %v, want a log.level validation error", err)
	}
}

func TestMonitorCommand(t *testing.T) {
	mock := newMock(t, testutil.NewRaw(1, petition.StateOpen, 5))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &syncBuffer{}
	errCh := make(chan error, 1)
	go func() {
		errCh <- runCmd(t, ctx, out, "monitor", "--base-url", mock.URL(),
			"--initial-interval", "1ms", "--interval", "1ms")
	}()

	waitForOutput(t, out, "Tracking 1 petitions")
	mock.Put(testutil.NewRaw(1, petition.StateOpen, 10005))

	waitForOutput(t, out, "Updated petition 'Petition 1' has 10005 signatures")
	waitForOutput(t, out, "Petition 'Petition 1' has reached the threshold for a response")
	waitForOutput(t, out, "Petition 'Petition 1' has reached 5000 signatures")
	if strings.Contains(out.String(), "reached 10000 signatures") {
		t.Error("threshold milestones should be reported once, as thresholds")
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("monitor error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not stop")
	}
}

func waitForOutput(t *testing.T, out *syncBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(out.String(), want) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %q, output:\n%s", want, out.String())
}

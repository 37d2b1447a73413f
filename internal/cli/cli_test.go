package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/zhouzirui/whispers/backend/internal/app"
	"github.com/zhouzirui/whispers/backend/internal/config"
	"github.com/zhouzirui/whispers/backend/internal/logger"
	"github.com/zhouzirui/whispers/backend/internal/service/ai"
	"github.com/zhouzirui/whispers/backend/internal/store"
)

type cannedResponder struct{}

func (cannedResponder) Respond(context.Context, ai.Request) ai.Reply {
	return ai.Reply{Response: "Thank you for sharing.", Emotion: "warm", MemoryTag: "Gratitude"}
}

func memoryFactory(st store.Store) Factory {
	return func(ctx context.Context) (*app.App, error) {
		return app.New(ctx, config.Default(), logger.Nop(), app.WithStore(st), app.WithResponder(cannedResponder{}))
	}
}

func run(t *testing.T, factory Factory, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd(factory)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSendThenInspect(t *testing.T) {
	st := store.NewMemoryStore()
	factory := memoryFactory(st)

	out, err := run(t, factory, "send", "I", "am", "grateful", "today")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.Contains(out, "Thank you for sharing.") || !strings.Contains(out, "tag=Gratitude") {
		t.Fatalf("unexpected send output: %q", out)
	}

	out, err = run(t, factory, "garden")
	if err != nil {
		t.Fatalf("garden: %v", err)
	}
	if !strings.Contains(out, "seeds:") || !strings.Contains(out, "quest ") {
		t.Fatalf("unexpected garden output: %q", out)
	}

	out, err = run(t, factory, "export")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out, `"userMessage": "I am grateful today"`) {
		t.Fatalf("export missing persisted exchange: %s", out)
	}

	out, err = run(t, factory, "journal")
	if err != nil {
		t.Fatalf("journal: %v", err)
	}
	if !strings.Contains(out, "First Meeting") {
		t.Fatalf("journal missing seed memory: %q", out)
	}
}

func TestSessionsEmpty(t *testing.T) {
	out, err := run(t, memoryFactory(store.NewMemoryStore()), "sessions")
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if !strings.Contains(out, "No sessions recorded.") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestResetRequiresConfirmation(t *testing.T) {
	st := store.NewMemoryStore()
	factory := memoryFactory(st)
	if _, err := run(t, factory, "send", "hello there"); err != nil {
		t.Fatalf("send: %v", err)
	}

	if _, err := run(t, factory, "reset"); err == nil {
		t.Fatal("reset without --yes should fail")
	}
	if _, err := st.Get(context.Background(), config.Default().Store.Key); err != nil {
		t.Fatalf("memory document should survive: %v", err)
	}

	out, err := run(t, factory, "reset", "--yes")
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if strings.Count(out, "deleted ") != 3 {
		t.Fatalf("expected three deletions, got %q", out)
	}
	if _, err := st.Get(context.Background(), config.Default().Store.Key); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected memory document removed, got %v", err)
	}
}

func TestFactoryErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	_, err := run(t, func(context.Context) (*app.App, error) { return nil, boom }, "notes")
	if !errors.Is(err, boom) {
		t.Fatalf("expected factory error, got %v", err)
	}
}

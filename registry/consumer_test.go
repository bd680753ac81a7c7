package registry

import (
	"testing"

	"github.com/NicolasLM/sauna/status"
)

type fakeSender struct {
	sent []status.ServiceCheck
}

func (f *fakeSender) Send(c status.ServiceCheck) error {
	f.sent = append(f.sent, c)
	return nil
}

func stdoutFactory(cfg map[string]any) (*Consumer, error) {
	return &Consumer{
		Name:   "stdout",
		Mode:   ModeQueued,
		Sender: &fakeSender{},
	}, nil
}

func TestConsumerRegistryRegisterDuplicate(t *testing.T) {
	r := NewConsumerRegistry()

	if err := r.Register("stdout", stdoutFactory); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := r.Register("stdout", stdoutFactory); err == nil {
		t.Fatal("expected error registering duplicate consumer name")
	}
}

func TestConsumerRegistryCreateUnknown(t *testing.T) {
	r := NewConsumerRegistry()
	if _, err := r.Create("nonexistent", nil); err == nil {
		t.Fatal("expected error creating unknown consumer")
	}
}

func TestConsumerRegistryListSorted(t *testing.T) {
	r := NewConsumerRegistry()
	for _, name := range []string{"tcp_status_server", "nsca", "stdout", "http_status_server"} {
		if err := r.Register(name, stdoutFactory); err != nil {
			t.Fatalf("Register(%q): %v", name, err)
		}
	}

	got := r.List()
	want := []string{"http_status_server", "nsca", "stdout", "tcp_status_server"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestModeString(t *testing.T) {
	tests := []struct {
		mode Mode
		want string
	}{
		{ModeQueued, "queued"},
		{ModeBatched, "batched"},
		{ModePull, "pull"},
		{Mode(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("Mode(%d).String() = %q, want %q", tt.mode, got, tt.want)
		}
	}
}

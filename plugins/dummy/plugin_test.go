package dummy

import (
	"testing"

	"github.com/NicolasLM/sauna/status"
)

func TestOkAlwaysReturnsOK(t *testing.T) {
	st, output, err := ok(nil)
	if err != nil {
		t.Fatalf("ok: %v", err)
	}
	if st != status.OK {
		t.Errorf("status = %v, want OK", st)
	}
	if output == "" {
		t.Error("expected non-empty output")
	}
}

func TestFactoryRegistersOkCheck(t *testing.T) {
	plugin, err := Factory(nil)
	if err != nil {
		t.Fatalf("Factory: %v", err)
	}
	if _, ok := plugin.Checks["ok"]; !ok {
		t.Error("missing \"ok\" check")
	}
}

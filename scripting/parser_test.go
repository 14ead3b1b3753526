package scripting_test

import (
	"testing"

	"github.com/skryldev/videoproc/scripting"
	_ "github.com/skryldev/videoproc/scripting/ops"
)

func TestParse_IdentityScript(t *testing.T) {
	prog, err := scripting.Parse(`a = input(); a`, scripting.Default)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(prog.Nodes) != 1 {
		t.Fatalf("Nodes: got %d, want 1", len(prog.Nodes))
	}
	if prog.FinalResultID != prog.Nodes[0].ResultID {
		t.Errorf("FinalResultID should select the trailing identifier's binding")
	}
}

func TestParse_UnknownOperation(t *testing.T) {
	_, err := scripting.Parse(`a = nope(); a`, scripting.Default)
	if err == nil {
		t.Fatal("expected an error for an unregistered operation")
	}
}

func TestParse_UndeclaredIdentifier(t *testing.T) {
	_, err := scripting.Parse(`a = mean(b, 3, 3, "constant"); a`, scripting.Default)
	if err == nil {
		t.Fatal("expected an error referencing an undeclared identifier")
	}
}

func TestParse_NoMatchingOverload(t *testing.T) {
	// mean's only overload takes (gray, int, int, string); passing a real
	// where an int is expected must fail to resolve.
	_, err := scripting.Parse(`a = input(); b = mean(a, 3.5, 3, "constant"); b`, scripting.Default)
	if err == nil {
		t.Fatal("expected a no-matching-overload error")
	}
}

func TestParse_EmptySourceIsAnError(t *testing.T) {
	_, err := scripting.Parse(``, scripting.Default)
	if err == nil {
		t.Fatal("expected an error for empty script source")
	}
}

func TestParse_DependencyEdgesRecorded(t *testing.T) {
	prog, err := scripting.Parse(`a = input(); b = mean(a, 3, 3, "constant"); b`, scripting.Default)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(prog.Nodes) != 2 {
		t.Fatalf("Nodes: got %d, want 2", len(prog.Nodes))
	}
	meanNode := prog.Nodes[1]
	if len(meanNode.Deps) != 1 || meanNode.Deps[0] != prog.Nodes[0].ResultID {
		t.Errorf("mean's dependency edge should point at input's result ID, got %v", meanNode.Deps)
	}
}

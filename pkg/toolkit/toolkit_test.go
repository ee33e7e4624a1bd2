package toolkit

import (
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type mockToolkit struct{}

func (mockToolkit) Kind() string                { return "mock" }
func (mockToolkit) Name() string                { return "mock-instance" }
func (mockToolkit) Connection() string          { return "mock-conn" }
func (mockToolkit) RegisterTools(_ *mcp.Server) {}
func (mockToolkit) Tools() []string             { return []string{"mock_tool"} }
func (mockToolkit) Close() error                { return nil }

// TestToolkitInterface is a compile-time check that the interface is
// satisfiable.
func TestToolkitInterface(t *testing.T) {
	var tk Toolkit = mockToolkit{}
	if tk.Kind() != "mock" {
		t.Errorf("Kind = %q", tk.Kind())
	}
}

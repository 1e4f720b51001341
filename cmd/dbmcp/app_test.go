package main

import (
	"bytes"
	"encoding/json"
	"io"
	"testing"

	"pkt.systems/pslog"

	"pkt.systems/dbmcp/internal/version"
	"pkt.systems/dbmcp/mcp"
)

func executeRootCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand(pslog.NewStructured(io.Discard))
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCommand(pslog.NewStructured(io.Discard))
	for _, name := range []string{"project", "table", "migrate", "backup", "restore", "tools-list", "version"} {
		sub, _, err := root.Find([]string{name})
		if err != nil {
			t.Fatalf("find %s command: %v", name, err)
		}
		if sub == nil || sub.Name() != name {
			t.Fatalf("expected %s command to be registered", name)
		}
	}
}

func TestProjectCommandRegistersOperations(t *testing.T) {
	root := newRootCommand(pslog.NewStructured(io.Discard))
	for _, name := range []string{"create", "list", "get", "delete", "rotate-keys", "health"} {
		sub, _, err := root.Find([]string{"project", name})
		if err != nil {
			t.Fatalf("find project %s command: %v", name, err)
		}
		if sub == nil || sub.Name() != name {
			t.Fatalf("expected project %s command to be registered", name)
		}
	}
}

func TestRootCommandFlagDefaults(t *testing.T) {
	root := newRootCommand(pslog.NewStructured(io.Discard))
	if flag := root.Flags().Lookup("transport"); flag == nil {
		t.Fatalf("expected --transport on root command")
	} else if flag.DefValue != mcp.TransportStdio {
		t.Fatalf("expected transport default stdio, got %q", flag.DefValue)
	}
	if flag := root.Flags().Lookup("listen"); flag == nil {
		t.Fatalf("expected --listen on root command")
	} else if flag.DefValue != "127.0.0.1:19346" {
		t.Fatalf("expected listen default 127.0.0.1:19346, got %q", flag.DefValue)
	}
	if flag := root.Flags().Lookup("mcp-path"); flag == nil {
		t.Fatalf("expected --mcp-path on root command")
	} else if flag.DefValue != "/mcp" {
		t.Fatalf("expected mcp-path default /mcp, got %q", flag.DefValue)
	}
	if flag := root.PersistentFlags().Lookup("api-url"); flag == nil || flag.Shorthand != "u" {
		t.Fatalf("expected persistent --api-url/-u on root command")
	}
}

func TestVersionCommandPrintsCurrentVersion(t *testing.T) {
	stdout, stderr, err := executeRootCommand(t, "version")
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if stderr != "" {
		t.Fatalf("expected empty stderr, got %q", stderr)
	}
	want := version.Module() + " " + version.Current() + "\n"
	if stdout != want {
		t.Fatalf("unexpected stdout: got %q want %q", stdout, want)
	}
}

func TestToolsListCommandPrintsRegistry(t *testing.T) {
	stdout, stderr, err := executeRootCommand(t, "tools-list")
	if err != nil {
		t.Fatalf("tools-list command failed: %v", err)
	}
	if stderr != "" {
		t.Fatalf("expected empty stderr, got %q", stderr)
	}
	var decoded mcp.ToolsListResponse
	if err := json.Unmarshal([]byte(stdout), &decoded); err != nil {
		t.Fatalf("decode tools-list output: %v", err)
	}
	if len(decoded.Result.Tools) == 0 {
		t.Fatalf("expected tools in tools-list output")
	}
	names := map[string]bool{}
	for _, tool := range decoded.Result.Tools {
		if tool != nil {
			names[tool.Name] = true
		}
	}
	for _, want := range []string{"create_project", "run_migration", "restore_project"} {
		if !names[want] {
			t.Fatalf("missing tool %q in tools-list output", want)
		}
	}
}

package cli

import (
	"strings"
	"testing"

	"github.com/erg0nix/gnomegpt/internal/config"
)

func TestClientAddrFromBind(t *testing.T) {
	tests := []struct {
		bind string
		want string
	}{
		{"127.0.0.1:50061", "127.0.0.1:50061"},
		{":50061", "127.0.0.1:50061"},
		{"0.0.0.0:7000", "127.0.0.1:7000"},
		{"[::]:7000", "127.0.0.1:7000"},
		{"gnome.local:7000", "gnome.local:7000"},
		{"garbage", "garbage"},
	}

	for _, tt := range tests {
		if got := clientAddrFromBind(tt.bind); got != tt.want {
			t.Errorf("clientAddrFromBind(%q) = %q, want %q", tt.bind, got, tt.want)
		}
	}
}

func TestResolveServerPrefersOverride(t *testing.T) {
	cfg := config.Default()
	if got := resolveServer("10.0.0.2:9000", cfg); got != "10.0.0.2:9000" {
		t.Errorf("resolveServer = %q", got)
	}
	if got := resolveServer("", cfg); got != config.DefaultBind {
		t.Errorf("resolveServer = %q, want %q", got, config.DefaultBind)
	}
}

func TestFormatUptime(t *testing.T) {
	tests := map[int64]string{0: "0s", 42: "42s", 125: "2m5s", 3725: "1h2m5s"}
	for seconds, want := range tests {
		if got := formatUptime(seconds); got != want {
			t.Errorf("formatUptime(%d) = %q, want %q", seconds, got, want)
		}
	}
}

func TestRedactedTOMLHidesKey(t *testing.T) {
	cfg := config.Default()
	cfg.APIKey = "sk-abcdefghijklmnop1234"

	out, err := redactedTOML(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "abcdefghijklmnop") {
		t.Errorf("key leaked:\n%s", out)
	}
	if !strings.Contains(out, "sk-ab...234") {
		t.Errorf("redacted key missing:\n%s", out)
	}
}

func TestRootCommandTree(t *testing.T) {
	root := NewRootCommand()
	for _, name := range []string{"chat", "serve", "stop", "ps", "init", "config"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q missing", name)
		}
	}
}

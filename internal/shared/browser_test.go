package shared

import (
	"path/filepath"
	"testing"
)

func TestBrowserCommand(t *testing.T) {
	restore := getRuntime
	t.Cleanup(func() { getRuntime = restore })

	tc := []struct {
		goos string
		want string
	}{
		{goos: "darwin", want: "open"},
		{goos: "linux", want: "xdg-open"},
		{goos: "windows", want: "rundll32"},
	}

	for _, tt := range tc {
		t.Run(tt.goos, func(t *testing.T) {
			t.Setenv("BROWSER", "")
			getRuntime = func() string { return tt.goos }

			cmd, err := browserCommand("https://example.com")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if filepath.Base(cmd.Path) != tt.want && cmd.Args[0] != tt.want {
				t.Errorf("expected %s, got %v", tt.want, cmd.Args)
			}
			if last := cmd.Args[len(cmd.Args)-1]; last != "https://example.com" {
				t.Errorf("expected url as last argument, got %s", last)
			}
		})
	}

	t.Run("Unsupported Platform", func(t *testing.T) {
		t.Setenv("BROWSER", "")
		getRuntime = func() string { return "plan9" }
		if _, err := browserCommand("https://example.com"); err == nil {
			t.Error("expected error for unsupported platform")
		}
	})

	t.Run("BROWSER Override", func(t *testing.T) {
		t.Setenv("BROWSER", "firefox")
		getRuntime = func() string { return "plan9" }
		cmd, err := browserCommand("https://example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cmd.Args[0] != "firefox" {
			t.Errorf("expected firefox, got %v", cmd.Args)
		}
	})
}

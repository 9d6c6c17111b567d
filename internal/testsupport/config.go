package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"salesmind/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Stage delays are zeroed and the transcript clear delay shortened so
// pipelines finish quickly.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Journal.Path = filepath.Join(base, "state", "journal.db")
	cfgVal.Progress.StageDelaysMS = []int{0, 0, 0, 0, 0}
	cfgVal.Audio.TranscriptClearMS = 10
	cfgVal.Audio.ProgressIntervalMS = 20
	cfgVal.Notifications.NtfyTopic = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithBackendURL points the backend client at url (usually an httptest server).
func WithBackendURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Backend.BaseURL = url
	}
}

// WithVendor overrides the fallback narration vendor.
func WithVendor(vendor string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Insight.Vendor = vendor
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the default audio binaries are
// stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffplay", "ffprobe"}
		}
		binDir := b.binDir()
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// WithAudioStubs installs a player that exits after a short sleep and a probe
// that reports one audio stream, and points the audio config at them.
func WithAudioStubs() ConfigOption {
	return func(b *configBuilder) {
		binDir := b.binDir()
		player := filepath.Join(binDir, "ffplay")
		probe := filepath.Join(binDir, "ffprobe")
		if err := os.WriteFile(player, []byte("#!/bin/sh\nsleep 0.05\n"), 0o755); err != nil {
			b.t.Fatalf("write player stub: %v", err)
		}
		probeScript := "#!/bin/sh\ncat <<'JSON'\n" + ProbeAudioJSON + "\nJSON\n"
		if err := os.WriteFile(probe, []byte(probeScript), 0o755); err != nil {
			b.t.Fatalf("write probe stub: %v", err)
		}
		b.cfg.Audio.PlayerBinary = player
		b.cfg.Audio.ProbeBinary = probe
	}
}

// ProbeAudioJSON is the ffprobe output emitted by the audio stub.
const ProbeAudioJSON = `{"streams":[{"index":0,"codec_type":"audio","codec_name":"mp3","duration":"0.05"}],"format":{"duration":"0.05","format_name":"mp3"}}`

func (b *configBuilder) binDir() string {
	dir := filepath.Join(b.baseDir, "bin")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		b.t.Fatalf("mkdir bin dir: %v", err)
	}
	return dir
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}

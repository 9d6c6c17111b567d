package config

const (
	defaultStateDir              = "~/.local/share/salesmind"
	defaultLogDir                = "~/.local/share/salesmind/logs"
	defaultLogRetentionDays      = 30
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultAPIBind               = "127.0.0.1:7491"
	defaultBackendURL            = "http://127.0.0.1:5000"
	defaultBackendTimeoutSeconds = 30
	defaultUserAgent             = "Salesmind/dev"
	defaultCanvasWidth           = 1200
	defaultCanvasHeight          = 800
	defaultVendor                = "LTIMindtree"
	defaultPlayerBinary          = "ffplay"
	defaultProbeBinary           = "ffprobe"
	defaultTranscriptClearMS     = 2000
	defaultProgressIntervalMS    = 250
	defaultNotifyRequestTimeout  = 10
	defaultToastSeconds          = 3
	defaultJournalFile           = "journal.db"
)

var defaultStageDelaysMS = []int{800, 1000, 1200, 800, 1500}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
			APIBind:  defaultAPIBind,
		},
		Backend: Backend{
			BaseURL:        defaultBackendURL,
			TimeoutSeconds: defaultBackendTimeoutSeconds,
			UserAgent:      defaultUserAgent,
		},
		Canvas: Canvas{
			Width:  defaultCanvasWidth,
			Height: defaultCanvasHeight,
		},
		Insight: Insight{
			Vendor: defaultVendor,
		},
		Audio: Audio{
			PlayerBinary:       defaultPlayerBinary,
			ProbeBinary:        defaultProbeBinary,
			TranscriptClearMS:  defaultTranscriptClearMS,
			ProgressIntervalMS: defaultProgressIntervalMS,
		},
		Progress: Progress{
			StageDelaysMS: append([]int(nil), defaultStageDelaysMS...),
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			ToastSeconds:   defaultToastSeconds,
			Research:       true,
			Errors:         true,
		},
		Journal: Journal{
			Enabled: true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}

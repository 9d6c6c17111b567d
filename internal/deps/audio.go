package deps

import "salesmind/internal/config"

// AudioRequirements lists the binaries narration playback shells out to.
// Without them the workspace still researches; only audio is lost, so both
// are optional.
func AudioRequirements(cfg *config.Config) []Requirement {
	player, probe := "ffplay", "ffprobe"
	if cfg != nil {
		player = cfg.Audio.PlayerBinary
		probe = cfg.Audio.ProbeBinary
	}
	return []Requirement{
		{
			Name:        "Audio player",
			Command:     player,
			Description: "Plays synthesized narration",
			Optional:    true,
		},
		{
			Name:        "Audio probe",
			Command:     probe,
			Description: "Validates synthesized audio before playback",
			Optional:    true,
		},
	}
}

// CheckAudio reports the audio binaries configured in cfg.
func CheckAudio(cfg *config.Config) []Status {
	return CheckBinaries(AudioRequirements(cfg))
}

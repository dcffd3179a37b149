package logging

import (
	"log/slog"
)

type LogCode string

const (
	// SYSTEM EVENTS (SYSTEM*)
	SYSTEM LogCode = "SYSTEM"

	// ORGANIZER OPERATIONS
	EVENT_OP      LogCode = "EVENT_OP"
	ASSET_OP      LogCode = "ASSET_OP"
	QUIZ_OP       LogCode = "QUIZ_OP"
	ATTEMPT_OP    LogCode = "ATTEMPT_OP"
	PERMISSION_OP LogCode = "PERMISSION_OP"

	// AR CLIENT OPERATIONS
	UNITY_SCORING     LogCode = "UNITY_SCORING"
	UNITY_LEADERBOARD LogCode = "UNITY_LEADERBOARD"

	STORAGE LogCode = "STORAGE"
)

// VictoriaLogs has fixed field name for time (_time) and message(_msg). This function maps fields msg -> _msg and time -> _time.
func convertKeysToVictoriaLogs(keys []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		return slog.Attr{Key: "_time", Value: slog.StringValue(a.Value.Time().Format("2006-01-02 15:04:05"))}
	}
	if a.Key == slog.MessageKey {
		return slog.Attr{Key: "_msg", Value: a.Value}
	}
	return a
}

func GetVictoriaLogsOptions(addSource bool) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level:       slog.LevelDebug,
		ReplaceAttr: convertKeysToVictoriaLogs,
		AddSource:   addSource,
	}
}

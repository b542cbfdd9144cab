package internal

import (
	"fmt"
	"log/slog"
	"os"
)

// InitSlog installs a JSON slog handler on stderr at the given level
// (see https://pkg.go.dev/log/slog#hdr-Levels). Unknown levels fall back to INFO.
func InitSlog(level string) {
	var programLevel slog.Level
	if err := (&programLevel).UnmarshalText([]byte(level)); err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level %s: %v, using info\n", level, err)
		programLevel = slog.LevelInfo
	}

	leveler := &slog.LevelVar{}
	leveler.Set(programLevel)

	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		AddSource: true,
		Level:     leveler,
	})
	slog.SetDefault(slog.New(h))
}

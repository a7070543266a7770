package logutil

import (
	"fmt"
	"io"
	"log"
	"regexp"
	"strings"
	"unicode"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logFileName  = "flash_insight_debug.log"
	maxSizeMB    = 10
	maxArchives  = 3
	maxLogAnswer = 200
)

var (
	bearerPattern = regexp.MustCompile(`(?i)\bBearer\s+[^\s"']+`)
	keyPattern    = regexp.MustCompile(`(?i)\b((?:GOOGLE|OPENROUTER)_API_KEY)=(\S+)`)
)

// Setup routes the standard logger to a rotating file (10MB, 3 archives).
// When disabled, logs are discarded so stdout stays clean.
func Setup(enableFileLogging bool) io.Closer {
	return setup(enableFileLogging, logFileName)
}

func setup(enable bool, path string) io.Closer {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if !enable {
		log.SetOutput(io.Discard)
		return io.NopCloser(nil)
	}
	rot := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxArchives,
	}
	log.SetOutput(rot)
	return rot
}

// RedactKey masks an API key, leaving first/last 4 chars: xxxx...yyyy
func RedactKey(k string) string {
	if len(k) <= 8 {
		return "********"
	}
	return fmt.Sprintf("%s...%s", k[:4], k[len(k)-4:])
}

// SanitizeForLog flattens control characters, hides credentials and
// truncates long values.
func SanitizeForLog(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	s = bearerPattern.ReplaceAllString(s, "Bearer <redacted>")
	s = keyPattern.ReplaceAllString(s, "$1=<redacted>")
	if r := []rune(s); len(r) > maxLogAnswer {
		s = string(r[:maxLogAnswer]) + "..."
	}
	return s
}

package questiongen

import "github.com/abhisek/readmind/internal/i18n"

// Config controls the LLMGenerator.
type Config struct {
	MaxTokens   int
	Temperature float64

	// MaxTextChars caps how much of the text body is sent, in runes.
	MaxTextChars int

	// Lang selects the language questions are written in.
	Lang string
}

func DefaultConfig() Config {
	return Config{
		MaxTokens:    1024,
		Temperature:  0.7,
		MaxTextChars: 6000,
		Lang:         i18n.DefaultLang,
	}
}

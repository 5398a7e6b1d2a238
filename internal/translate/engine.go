package translate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrTranslationFailed   = errors.New("translation failed")
	ErrMissingKey          = errors.New("api key not configured")
	ErrUnknownEngine       = errors.New("unknown translation engine")
)

// Engine translates one piece of plain text. source may be "auto".
type Engine interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
	Name() string
}

// KeyResolver returns the current value of a credential or model setting.
// It is consulted on every call so admin changes apply without a restart.
type KeyResolver func() string

// SettingsReader is the subset of the settings store used to resolve keys.
type SettingsReader interface {
	GetSetting(key, defaultVal string) string
}

// SettingKey resolves key from the settings store, falling back to envValue
// when the setting is missing or cleared.
func SettingKey(store SettingsReader, key, envValue string) KeyResolver {
	return func() string {
		if store == nil {
			return envValue
		}
		if v := store.GetSetting(key, ""); v != "" {
			return v
		}
		return envValue
	}
}

// Keys carries the resolvers each engine needs.
type Keys struct {
	DeepL       KeyResolver
	Gemini      KeyResolver
	GeminiModel KeyResolver
	OpenAI      KeyResolver
	OpenAIModel KeyResolver
}

// NewEngine builds the engine registered under name.
func NewEngine(name string, keys Keys, client *http.Client) (Engine, error) {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	switch name {
	case "google":
		return NewGoogleTranslator(client), nil
	case "deepl":
		return NewDeepLTranslator(keys.DeepL, client), nil
	case "gemini":
		return NewGeminiTranslator(keys.Gemini, keys.GeminiModel, client), nil
	case "openai":
		return NewOpenAITranslator(keys.OpenAI, keys.OpenAIModel, client), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, name)
	}
}

func resolve(r KeyResolver) string {
	if r == nil {
		return ""
	}
	return r()
}

type apiError struct {
	Engine string
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Engine, e.Status, e.Body)
}

package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	deeplFreeURL = "https://api-free.deepl.com/v2/translate"
	deeplProURL  = "https://api.deepl.com/v2/translate"
)

// DeepLTranslator translates text using the DeepL API
type DeepLTranslator struct {
	apiKey     KeyResolver
	endpoint   string
	httpClient *http.Client
}

func NewDeepLTranslator(apiKey KeyResolver, client *http.Client) *DeepLTranslator {
	return &DeepLTranslator{apiKey: apiKey, httpClient: client}
}

func (d *DeepLTranslator) Name() string {
	return "deepl"
}

func (d *DeepLTranslator) url(key string) string {
	if d.endpoint != "" {
		return d.endpoint
	}
	// Free-tier keys carry a ":fx" suffix.
	if strings.HasSuffix(key, ":fx") {
		return deeplFreeURL
	}
	return deeplProURL
}

func (d *DeepLTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	key := resolve(d.apiKey)
	if key == "" {
		return "", fmt.Errorf("deepl: %w", ErrMissingKey)
	}

	form := url.Values{}
	form.Add("text", text)
	form.Set("target_lang", deeplLangCode(target))
	if source != "" && source != "auto" {
		form.Set("source_lang", strings.ToUpper(baseLang(source)))
	}
	form.Set("preserve_formatting", "1")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url(key),
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Authorization", "DeepL-Auth-Key "+key)

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("DeepL API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", &apiError{Engine: "deepl", Status: resp.StatusCode, Body: truncate(string(body), 256)}
	}

	var deeplResp struct {
		Translations []struct {
			Text string `json:"text"`
		} `json:"translations"`
	}
	if err := json.Unmarshal(body, &deeplResp); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(deeplResp.Translations) == 0 {
		return "", fmt.Errorf("empty DeepL response")
	}
	return deeplResp.Translations[0].Text, nil
}

// deeplLangCode converts ISO 639-1 codes to DeepL target format
func deeplLangCode(code string) string {
	mapping := map[string]string{
		"en":    "EN-US",
		"en-GB": "EN-GB",
		"pt":    "PT-BR",
		"pt-PT": "PT-PT",
		"zh":    "ZH-HANS",
	}
	if mapped, ok := mapping[code]; ok {
		return mapped
	}
	return strings.ToUpper(baseLang(code))
}

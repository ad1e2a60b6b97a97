package enhance

import (
	"context"
	"fmt"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"
)

// GoogleService enhances text through the Google Cloud Translation API.
type GoogleService struct {
	credentialsFile string
}

func NewGoogleService(credentialsFile string) *GoogleService {
	return &GoogleService{credentialsFile: credentialsFile}
}

func (s *GoogleService) Name() string { return "google" }

func (s *GoogleService) Enhance(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	targetTag, err := language.Parse(NormalizeLanguageCode(targetLang, "google"))
	if err != nil {
		return "", fmt.Errorf("invalid target language: %w", err)
	}

	opts := []option.ClientOption{}
	if s.credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(s.credentialsFile))
	}

	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	var translationOpts *translate.Options
	if sourceLang != "" && sourceLang != "auto" {
		sourceTag, err := language.Parse(NormalizeLanguageCode(sourceLang, "google"))
		if err == nil {
			translationOpts = &translate.Options{Source: sourceTag}
		}
	}

	translations, err := client.Translate(ctx, []string{text}, targetTag, translationOpts)
	if err != nil {
		return "", fmt.Errorf("translation failed: %w", err)
	}
	if len(translations) == 0 {
		return "", fmt.Errorf("no translation returned")
	}

	return translations[0].Text, nil
}

package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/headless-comments-api/internal/config"
	"github.com/headless-comments-api/internal/models"
	"github.com/headless-comments-api/internal/repository"
	"github.com/headless-comments-api/internal/validation"
	"github.com/rs/zerolog"
)

const apiKeyAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var lineBreaks = regexp.MustCompile(`\r\n|\r|\n`)

// settingsService is the concrete implementation of SettingsService
type settingsService struct {
	repo repository.SettingsRepository
	site config.SiteConfig
	log  zerolog.Logger
}

func newSettingsService(repo repository.SettingsRepository, site config.SiteConfig, log zerolog.Logger) *settingsService {
	return &settingsService{
		repo: repo,
		site: site,
		log:  log.With().Str("service", "settings").Logger(),
	}
}

// Snapshot reads all runtime settings in one query
func (s *settingsService) Snapshot(ctx context.Context) (*models.Settings, error) {
	values, err := s.repo.GetMany(ctx, models.SettingAPIKey, models.SettingAllowedOrigins, models.SettingSpamCheck)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	spamCheck, ok := values[models.SettingSpamCheck]
	if !ok {
		spamCheck = models.DefaultSpamCheck
	}

	return &models.Settings{
		APIKey:         values[models.SettingAPIKey],
		AllowedOrigins: ParseOrigins(values[models.SettingAllowedOrigins]),
		SpamCheck:      spamCheck != "" && spamCheck != "0",
	}, nil
}

// Bootstrap writes the default settings that are not yet present. It is safe to run
// on every start.
func (s *settingsService) Bootstrap(ctx context.Context) error {
	key := validation.SanitizeText(s.site.BootstrapAPIKey)
	if key == "" {
		generated, err := GenerateAPIKey()
		if err != nil {
			return err
		}
		key = generated
	}

	defaults := []struct {
		key   string
		value string
	}{
		{models.SettingAPIKey, key},
		{models.SettingAllowedOrigins, models.DefaultAllowedOrigins},
		{models.SettingSpamCheck, models.DefaultSpamCheck},
	}

	for _, d := range defaults {
		added, err := s.repo.Add(ctx, d.key, d.value)
		if err != nil {
			return fmt.Errorf("bootstrap settings: %w", err)
		}
		if added {
			s.log.Info().Str("key", d.key).Msg("Default setting written")
		}
	}

	return nil
}

// SetAPIKey replaces the API key with an operator supplied value
func (s *settingsService) SetAPIKey(ctx context.Context, key string) error {
	key = validation.SanitizeText(key)
	if key == "" {
		return fmt.Errorf("api key must not be empty")
	}
	if err := s.repo.Set(ctx, models.SettingAPIKey, key); err != nil {
		return err
	}
	s.log.Info().Msg("API key updated")
	return nil
}

// RotateAPIKey generates and stores a new API key
func (s *settingsService) RotateAPIKey(ctx context.Context) (string, error) {
	key, err := GenerateAPIKey()
	if err != nil {
		return "", err
	}
	if err := s.repo.Set(ctx, models.SettingAPIKey, key); err != nil {
		return "", err
	}
	s.log.Info().Msg("API key rotated")
	return key, nil
}

// SetAllowedOrigins normalizes and stores the origins list
func (s *settingsService) SetAllowedOrigins(ctx context.Context, raw string) ([]string, error) {
	origins := ParseOrigins(raw)
	if err := s.repo.Set(ctx, models.SettingAllowedOrigins, strings.Join(origins, "\n")); err != nil {
		return nil, err
	}
	s.log.Info().Strs("origins", origins).Msg("Allowed origins updated")
	return origins, nil
}

// SetSpamCheck turns spam classification on or off
func (s *settingsService) SetSpamCheck(ctx context.Context, enabled bool) error {
	value := "0"
	if enabled {
		value = "1"
	}
	if err := s.repo.Set(ctx, models.SettingSpamCheck, value); err != nil {
		return err
	}
	s.log.Info().Bool("enabled", enabled).Msg("Spam check setting updated")
	return nil
}

// ParseOrigins splits the stored origins text on any line break, trims each entry
// and drops empty ones.
func ParseOrigins(raw string) []string {
	origins := make([]string, 0)
	for _, line := range lineBreaks.Split(raw, -1) {
		if line = strings.TrimSpace(line); line != "" {
			origins = append(origins, line)
		}
	}
	return origins
}

// GenerateAPIKey returns a random alphanumeric key
func GenerateAPIKey() (string, error) {
	limit := big.NewInt(int64(len(apiKeyAlphabet)))
	b := make([]byte, models.APIKeyLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate api key: %w", err)
		}
		b[i] = apiKeyAlphabet[n.Int64()]
	}
	return string(b), nil
}

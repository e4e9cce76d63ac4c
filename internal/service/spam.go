package service

import (
	"context"

	"github.com/headless-comments-api/internal/config"
	"github.com/headless-comments-api/internal/metrics"
	"github.com/headless-comments-api/internal/models"
	"github.com/rs/zerolog"
)

// spamAdapter decides whether the classifier runs and maps its answer to an outcome.
// Classifier failures never block a submission: they yield SpamUnavailable.
type spamAdapter struct {
	classifier SpamClassifier
	site       config.SiteConfig
	metrics    *metrics.Metrics
	log        zerolog.Logger
}

func newSpamAdapter(classifier SpamClassifier, site config.SiteConfig, m *metrics.Metrics, log zerolog.Logger) *spamAdapter {
	return &spamAdapter{
		classifier: classifier,
		site:       site,
		metrics:    m,
		log:        log.With().Str("component", "spam").Logger(),
	}
}

// Active reports whether the classifier will be consulted
func (a *spamAdapter) Active(enabled bool) bool {
	return enabled && a.classifier != nil && a.classifier.Configured()
}

// Classify returns the outcome for a draft and, for SpamUnavailable, the cause
func (a *spamAdapter) Classify(ctx context.Context, enabled bool, draft *models.Comment, post *models.Post, referrer string) (models.SpamOutcome, error) {
	if !a.Active(enabled) {
		return models.SpamSkipped, nil
	}

	verdict, err := a.classifier.Check(ctx, a.buildRequest(draft, post, referrer))
	if err != nil {
		a.log.Warn().Err(err).Int64("post_id", draft.PostID).Msg("Spam check unavailable, accepting comment")
		a.metrics.IncSpamCheck(string(models.SpamUnavailable))
		return models.SpamUnavailable, err
	}

	outcome := models.SpamHam
	if verdict == models.VerdictSpam {
		outcome = models.SpamSpam
	}
	a.metrics.IncSpamCheck(string(outcome))
	return outcome, nil
}

func (a *spamAdapter) buildRequest(draft *models.Comment, post *models.Post, referrer string) *models.SpamCheckRequest {
	return &models.SpamCheckRequest{
		Blog:        a.site.URL,
		UserIP:      draft.AuthorIP,
		UserAgent:   draft.UserAgent,
		Referrer:    referrer,
		Permalink:   post.Permalink,
		CommentType: draft.Type,
		AuthorName:  draft.AuthorName,
		AuthorEmail: draft.AuthorEmail,
		AuthorURL:   draft.AuthorURL,
		Content:     draft.Content,
		BlogLang:    a.site.Locale,
		BlogCharset: a.site.Charset,
		ParentID:    draft.ParentID,
	}
}

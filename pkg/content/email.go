package content

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dan-solli/gencall/pkg/generation"
)

const (
	emailMaxTokens = 1000

	// DailyPlaceholder replaces a daily email that could not be generated
	DailyPlaceholder = "An error occurred while generating the daily email content."

	// MaxDailyFrequency is the largest number of daily emails per call
	MaxDailyFrequency = 4
)

// emailPrompt is used when Email gets a subject but no prompt
const emailPrompt = `Write a clear, well-structured email about the topic '%s'.
Open with a short introduction, explain the key points with a concrete example, and close with a one-sentence summary.
Return only the email body.`

// dailyEmailPrompt is the prompt template for one email of a daily series
const dailyEmailPrompt = `Create an engaging and educational email about the topic '%s' for readers who want to learn about it a little every day.
Structure it with a clear introduction, 2-3 actionable tips or insights, and a conclusion with a thought-provoking statement.
Use a fresh example, analogy or real-world scenario so that each email of the series feels different.
Keep it easy to read for beginners while still giving advanced readers something new.
Do not mention that you are an AI and do not address the reader as a subscriber.
%s`

// Email generates a single email. An empty prompt is built from the subject.
func (g *Generator) Email(ctx context.Context, subject, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		if strings.TrimSpace(subject) == "" {
			return "", invalidInput("subject", errors.New("subject or prompt is required"))
		}
		prompt = fmt.Sprintf(emailPrompt, subject)
	}

	result, err := g.client.Generate(ctx, g.request("email", prompt, emailMaxTokens))
	if err != nil {
		return "", fmt.Errorf("failed to generate email: %w", err)
	}
	return result.Text, nil
}

// DailyEmails generates frequency (1-4) emails on subject. Emails that fail
// are replaced by DailyPlaceholder; the series itself only fails on invalid
// input or cancellation.
func (g *Generator) DailyEmails(ctx context.Context, subject string, frequency int) ([]string, error) {
	if strings.TrimSpace(subject) == "" {
		return nil, invalidInput("subject", errors.New("must not be empty"))
	}
	if frequency < 1 || frequency > MaxDailyFrequency {
		return nil, invalidInput("frequency", fmt.Errorf("must be between 1 and %d, got %d", MaxDailyFrequency, frequency))
	}

	prompt := fmt.Sprintf(dailyEmailPrompt, subject, signoffInstruction(g.cfg.Signoff))

	results, err := g.client.GenerateBatch(ctx, g.request("daily_email", prompt, emailMaxTokens), frequency, generation.BatchOptions{
		Policy:      generation.ContinueWithPlaceholder,
		Placeholder: DailyPlaceholder,
		MaxInFlight: g.cfg.MaxInFlight,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate daily emails: %w", err)
	}

	emails := make([]string, len(results))
	for i, r := range results {
		emails[i] = r.Text
	}
	return emails, nil
}

func signoffInstruction(signoff string) string {
	signoff = strings.TrimSpace(signoff)
	if signoff == "" {
		return "End the email without a signature block."
	}
	return fmt.Sprintf("End the email with exactly this sign-off instead of a generic signature:\n%s", signoff)
}

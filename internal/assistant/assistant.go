// Package assistant wraps an external generative-text provider behind a
// credential pool. Quota and auth failures rotate to the next credential;
// provider errors never reach a UI as anything but friendly text.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// TextGenerator is the single capability the assistant needs from a
// provider. Tests substitute a fake.
type TextGenerator interface {
	Generate(ctx context.Context, apiKey, prompt string) (string, error)
}

const (
	msgNotConfigured = "Sorry, the AI assistant is not configured right now."
	msgOverloaded    = "The system is temporarily overloaded. Please try again in a few minutes."
	msgConfigError   = "A configuration error occurred. Please try again later."
	msgGenericError  = "Sorry, something went wrong while processing your question. Please try again."
	msgEmptyReply    = "Sorry, I could not process your question. Please try again."
)

const systemPreamble = `You are the virtual assistant of SolarPro, a store specialized in solar energy products.
Your role is to help customers with:
- Information about solar panels, inverters and complete kits
- Guidance on which product fits their needs
- Explanations about energy savings and return on investment
- Questions about installation and warranty
- Information about financing and payment options

Always be cordial, professional and objective. Use simple, accessible language.
If you do not know the answer, suggest the customer reach out by phone or WhatsApp.`

type Service struct {
	mu           sync.Mutex
	keys         []string
	current      int
	failed       map[int]struct{}
	lastRotation time.Time

	gen         TextGenerator
	maxAttempts int
	retryDelay  time.Duration
	rotateDelay time.Duration
}

func New(keys []string, gen TextGenerator) *Service {
	return &Service{
		keys:        keys,
		failed:      make(map[int]struct{}),
		gen:         gen,
		maxAttempts: 5,
		retryDelay:  time.Second,
		rotateDelay: 500 * time.Millisecond,
	}
}

// WithDelays overrides the retry/rotation backoffs; tests use zero delays.
func (s *Service) WithDelays(retry, rotate time.Duration) *Service {
	s.retryDelay = retry
	s.rotateDelay = rotate
	return s
}

type errClass int

const (
	classOther errClass = iota
	classQuota
	classAuth
)

func classify(err error) errClass {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429:
			return classQuota
		case 401, 403:
			return classAuth
		}
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "quota"), strings.Contains(msg, "rate"),
		strings.Contains(msg, "limit"), strings.Contains(msg, "429"):
		return classQuota
	case strings.Contains(msg, "invalid"), strings.Contains(msg, "api key"),
		strings.Contains(msg, "401"), strings.Contains(msg, "403"):
		return classAuth
	}
	return classOther
}

// rotate marks the current credential failed and moves to the next
// non-failed one, round-robin from just after the current index. When every
// credential is failed the set is cleared and false is returned so the
// caller can degrade instead of spinning.
func (s *Service) rotate() bool {
	s.failed[s.current] = struct{}{}

	if len(s.failed) >= len(s.keys) {
		s.failed = make(map[int]struct{})
		return false
	}

	for i := 0; i < len(s.keys); i++ {
		next := (s.current + 1 + i) % len(s.keys)
		if _, bad := s.failed[next]; !bad {
			s.current = next
			s.lastRotation = time.Now().UTC()
			return true
		}
	}
	return false
}

func (s *Service) buildPrompt(prompt, contextBlock string) string {
	full := systemPreamble
	if contextBlock != "" {
		full += "\n\nAdditional context:\n" + contextBlock
	}
	return full + "\n\nCustomer: " + prompt + "\n\nAssistant:"
}

// GetResponse asks the provider for a reply, rotating credentials on
// quota/auth failures and retrying the same credential on anything else.
// It always returns user-facing text.
func (s *Service) GetResponse(ctx context.Context, prompt, contextBlock string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.keys) == 0 {
		return msgNotConfigured
	}

	full := s.buildPrompt(prompt, contextBlock)

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		text, err := s.gen.Generate(ctx, s.keys[s.current], full)
		if err == nil {
			if strings.TrimSpace(text) == "" {
				return msgEmptyReply
			}
			delete(s.failed, s.current)
			return strings.TrimSpace(text)
		}

		switch classify(err) {
		case classQuota:
			if s.rotate() {
				sleep(ctx, s.rotateDelay)
				continue
			}
			return msgOverloaded
		case classAuth:
			if s.rotate() {
				continue
			}
			return msgConfigError
		default:
			if attempt < s.maxAttempts-1 {
				sleep(ctx, s.retryDelay)
				continue
			}
			return msgGenericError
		}
	}

	return msgGenericError
}

// GetRecommendation builds a sizing prompt for a customer profile.
func (s *Service) GetRecommendation(ctx context.Context, consumptionKWh float64, location, budget string) string {
	prompt := fmt.Sprintf("A customer wants to know which solar system suits them. Monthly consumption: %.0f kWh.", consumptionKWh)
	if location != "" {
		prompt += " Location: " + location + "."
	}
	if budget != "" {
		prompt += " Approximate budget: " + budget + "."
	}
	prompt += " Recommend the best system and explain the return on investment."
	return s.GetResponse(ctx, prompt, "")
}

// GetSavingsEstimate builds a savings-calculation prompt.
func (s *Service) GetSavingsEstimate(ctx context.Context, consumptionKWh, tariff float64) string {
	if tariff <= 0 {
		tariff = 0.75
	}
	prompt := fmt.Sprintf(`Calculate the savings for a customer with:
- Monthly consumption: %.0f kWh
- Electricity tariff: %.2f/kWh

Include:
1. Estimated monthly savings
2. Annual savings
3. Savings over 25 years (system lifetime)
4. Estimated payback period`, consumptionKWh, tariff)
	return s.GetResponse(ctx, prompt, "")
}

type Status struct {
	TotalKeys    int        `json:"total_keys"`
	CurrentKey   int        `json:"current_key"`
	FailedKeys   int        `json:"failed_keys"`
	LastRotation *time.Time `json:"last_rotation"`
	Active       bool       `json:"active"`
}

func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		TotalKeys:  len(s.keys),
		CurrentKey: s.current + 1,
		FailedKeys: len(s.failed),
		Active:     len(s.keys) > 0,
	}
	if !s.lastRotation.IsZero() {
		t := s.lastRotation
		st.LastRotation = &t
	}
	return st
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

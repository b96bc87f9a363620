package credit

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(segments ...string) error
	ResponseArray() ([]map[string]any, error)
}

// RegisterSteps registers credit lookup step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &creditSteps{tc: tc}

	ctx.Step(`^I look up credits for NFS-e "([^"]*)"$`, steps.lookupByNumeroNfse)
	ctx.Step(`^I look up credit "([^"]*)"$`, steps.lookupByNumeroCredito)

	ctx.Step(`^the response should contain (\d+) credits?$`, steps.responseShouldContainNCredits)
	ctx.Step(`^credit (\d+) should have "([^"]*)" equal to "([^"]*)"$`, steps.creditShouldHaveField)
}

type creditSteps struct {
	tc TestContext
}

func (s *creditSteps) lookupByNumeroNfse(ctx context.Context, numeroNfse string) error {
	return s.tc.GET("api", "creditos", numeroNfse)
}

func (s *creditSteps) lookupByNumeroCredito(ctx context.Context, numeroCredito string) error {
	return s.tc.GET("api", "creditos", "credito", numeroCredito)
}

func (s *creditSteps) responseShouldContainNCredits(ctx context.Context, n int) error {
	credits, err := s.tc.ResponseArray()
	if err != nil {
		return err
	}
	if len(credits) != n {
		return fmt.Errorf("expected %d credits, got %d", n, len(credits))
	}
	return nil
}

// creditShouldHaveField checks a field of the n-th credit (1-based).
func (s *creditSteps) creditShouldHaveField(ctx context.Context, n int, field, want string) error {
	credits, err := s.tc.ResponseArray()
	if err != nil {
		return err
	}
	if n < 1 || n > len(credits) {
		return fmt.Errorf("credit %d out of range (have %d)", n, len(credits))
	}
	if got := fmt.Sprint(credits[n-1][field]); got != want {
		return fmt.Errorf("credit %d: expected %s=%q, got %q", n, field, want, got)
	}
	return nil
}

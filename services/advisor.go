package services

import (
	"context"
	"fmt"

	"github.com/edithfert/fertpro/models"
)

// Advisor produces fertilizer advice for a crop. The service ships with a
// fixed template; a model-backed advisor can replace it without touching
// the recommendation flow.
type Advisor interface {
	Advise(ctx context.Context, crop string) (models.Advice, error)
}

type templateAdvisor struct{}

// NewTemplateAdvisor returns the built-in advisor. It never fails.
func NewTemplateAdvisor() Advisor {
	return templateAdvisor{}
}

func (templateAdvisor) Advise(_ context.Context, crop string) (models.Advice, error) {
	return models.Advice{
		Recommendation: fmt.Sprintf("Recommended fertilizer for %s: NPK 14-14-14", crop),
		Insight: fmt.Sprintf("Based on recent climate data and soil analysis, consider adjusting nitrogen levels slightly. "+
			"For %s, a 15-13-14 NPK ratio might be more optimal this season.", crop),
	}, nil
}

// AdvisorFunc adapts a plain function to Advisor.
type AdvisorFunc func(ctx context.Context, crop string) (models.Advice, error)

func (f AdvisorFunc) Advise(ctx context.Context, crop string) (models.Advice, error) {
	return f(ctx, crop)
}

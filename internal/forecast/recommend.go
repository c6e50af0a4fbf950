package forecast

import "fmt"

// Recommendation is one piece of budget advice derived from a forecast.
type Recommendation struct {
	Type    string `json:"type"` // "warning", "success", or "tip"
	Message string `json:"message"`
	Action  string `json:"action"`
}

// Advice pairs recommendations with the budget arithmetic behind them.
type Advice struct {
	Recommendations  []Recommendation `json:"recommendations"`
	PredictedTotal   float64          `json:"predicted_total"`
	BudgetDifference float64          `json:"budget_difference"`
	SavingsPotential float64          `json:"savings_potential"`
}

// savingsBudgetShare is the fraction of budget under which predicted spend
// counts as on track to save.
const savingsBudgetShare = 0.7

// dominantCategoryShare is the fraction of predicted total above which a
// single category earns an optimization tip.
const dominantCategoryShare = 0.3

// BuildAdvice evaluates a forecast against a monthly budget in dollars and
// returns budget recommendations. Pure; safe to call with any report.
func BuildAdvice(report *Report, budget float64) *Advice {
	predicted := report.Summary.TotalPredictedNextPeriod

	advice := &Advice{
		PredictedTotal:   predicted,
		BudgetDifference: round2(budget - predicted),
		SavingsPotential: round2(clamp(budget-predicted, 0, budget)),
	}

	if predicted > budget {
		advice.Recommendations = append(advice.Recommendations, Recommendation{
			Type: "warning",
			Message: fmt.Sprintf("Your predicted expenses ($%.2f) exceed your budget by $%.2f",
				predicted, predicted-budget),
			Action: "Consider reducing spending in high-expense categories",
		})
	} else if predicted < budget*savingsBudgetShare {
		advice.Recommendations = append(advice.Recommendations, Recommendation{
			Type:    "success",
			Message: fmt.Sprintf("You're on track to save $%.2f this month!", budget-predicted),
			Action:  "Consider putting extra savings into an emergency fund",
		})
	}

	// Categories are ranked by prediction, so the first is the largest.
	if len(report.Categories) > 0 && predicted > 0 {
		top := report.Categories[0]

		pct := top.PredictedNextPeriod / predicted * 100
		if pct > dominantCategoryShare*100 {
			advice.Recommendations = append(advice.Recommendations, Recommendation{
				Type: "tip",
				Message: fmt.Sprintf("%s is your largest expense at %.1f%% of total spending",
					top.Category, pct),
				Action: fmt.Sprintf("Look for ways to optimize %s costs", top.Category),
			})
		}
	}

	// Pad thin advice with a general habit tip so callers always get
	// something actionable.
	if len(advice.Recommendations) < 3 {
		advice.Recommendations = append(advice.Recommendations, Recommendation{
			Type:    "tip",
			Message: "Track your expenses weekly to stay on budget",
			Action:  "Set up spending alerts for each category",
		})
	}

	return advice
}

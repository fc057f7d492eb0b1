// Package orchestrator composes scoring, risk features and decisioning
// into end-to-end reports for single applications, portfolios and
// monitored loans.
package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/opensource-finance/kestrel/internal/decision"
	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/risk"
	"github.com/opensource-finance/kestrel/internal/scoring"
)

// Orchestrator wires the three engines together.
type Orchestrator struct {
	scorer   *scoring.Engine
	analyzer *risk.Analyzer
	decider  *decision.Engine
	maxFan   int
}

// New creates an orchestrator.
func New(scorer *scoring.Engine, analyzer *risk.Analyzer, decider *decision.Engine) *Orchestrator {
	return &Orchestrator{
		scorer:   scorer,
		analyzer: analyzer,
		decider:  decider,
		maxFan:   16,
	}
}

// ApplicantReport is the full single-application assessment.
type ApplicantReport struct {
	ID          string    `json:"id"`
	ApplicantID string    `json:"applicantId"`
	GeneratedAt time.Time `json:"generatedAt"`

	Score       *domain.CreditScoreResult         `json:"score"`
	Fraud       *domain.FraudAssessment           `json:"fraud"`
	CreditLimit *domain.CreditLimitRecommendation `json:"creditLimit"`
	Pricing     *domain.LoanPricing               `json:"pricing"`

	ExecutiveSummary string   `json:"executiveSummary"`
	NextSteps        []string `json:"nextSteps"`
}

// FullReport scores and fraud-checks the application concurrently, then
// runs the score-dependent analyses and assembles the narrative.
func (o *Orchestrator) FullReport(ctx context.Context, app *domain.CreditApplication) (*ApplicantReport, error) {
	if err := app.Validate(); err != nil {
		return nil, err
	}

	report := &ApplicantReport{
		ID:          uuid.New().String(),
		ApplicantID: app.ApplicantID,
		GeneratedAt: time.Now().UTC(),
	}

	// Scoring and fraud detection have no mutual dependency.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		report.Score = o.scorer.Score(app)
	}()
	go func() {
		defer wg.Done()
		report.Fraud = o.analyzer.DetectFraud(app)
	}()
	wg.Wait()

	// Credit limit and pricing need the score.
	report.CreditLimit = o.analyzer.OptimalCreditLimit(app, report.Score)
	report.Pricing = o.analyzer.OptimizeLoanPricing(app, report.Score, nil, 0)

	report.ExecutiveSummary = executiveSummary(app, report.Score, report.Fraud)
	report.NextSteps = nextSteps(report.Score.Recommendation.Decision, report.Fraud)

	return report, nil
}

// executiveSummary renders the templated narrative for the report.
func executiveSummary(app *domain.CreditApplication, score *domain.CreditScoreResult, fraud *domain.FraudAssessment) string {
	summary := fmt.Sprintf(
		"%s (%s, %.0f years in business) scored %.0f (%s) with a %.1f%% estimated default probability, placing it in the %s risk category. Recommended action: %s.",
		app.BusinessInfo.BusinessName,
		app.BusinessInfo.Industry,
		app.BusinessInfo.YearsInBusiness,
		score.OverallScore,
		score.Rating,
		score.DefaultProbability*100,
		score.RiskCategory,
		score.Recommendation.Decision,
	)

	if fraud.Recommendation != domain.FraudProceed {
		summary += fmt.Sprintf(" Fraud screening raised a risk score of %.0f (%s).",
			fraud.RiskScore, fraud.Recommendation)
	}

	return summary
}

// nextSteps builds the checklist keyed by decision and fraud severity.
func nextSteps(d domain.Decision, fraud *domain.FraudAssessment) []string {
	var steps []string

	switch fraud.Recommendation {
	case domain.FraudReject:
		return []string{
			"route the application to the fraud investigation team",
			"freeze any pending disbursements for this applicant",
			"notify the applicant that additional verification is required",
		}
	case domain.FraudInvestigate:
		steps = append(steps, "verify flagged data points with source documents before proceeding")
	}

	switch d {
	case domain.DecisionApprove:
		steps = append(steps,
			"issue the term sheet at the suggested rate",
			"collect signed loan agreement and disbursement instructions",
		)
	case domain.DecisionApproveWithConditions:
		steps = append(steps,
			"issue a conditional term sheet listing all conditions",
			"collect condition evidence before disbursement",
		)
	case domain.DecisionReview:
		steps = append(steps,
			"assign to an underwriter for manual review",
			"request two years of financial statements",
		)
	case domain.DecisionDecline:
		steps = append(steps,
			"send the adverse action notice with the key negative factors",
			"share the improvement suggestions with the applicant",
		)
	}

	return steps
}

// LoanMonitoringAction is the follow-up for a monitored loan.
type LoanMonitoringAction string

const (
	ActionNone        LoanMonitoringAction = "none"
	ActionMonitor     LoanMonitoringAction = "monitor"
	ActionReview      LoanMonitoringAction = "review"
	ActionRestructure LoanMonitoringAction = "restructure"
	ActionEscalate    LoanMonitoringAction = "escalate"
)

// LoanMonitoringReport compares a loan's current state with origination.
type LoanMonitoringReport struct {
	LoanID       string                    `json:"loanId"`
	ApplicantID  string                    `json:"applicantId"`
	GeneratedAt  time.Time                 `json:"generatedAt"`
	CurrentScore *domain.CreditScoreResult `json:"currentScore"`
	ScoreDelta   float64                   `json:"scoreDelta"` // current minus origination
	Warning      *domain.EarlyWarning      `json:"warning"`
	Action       LoanMonitoringAction      `json:"action"`
}

// MonitorExistingLoan re-scores a borrower with updated data, diffs the
// result against the origination score and maps early-warning severity
// to a follow-up action.
func (o *Orchestrator) MonitorExistingLoan(ctx context.Context, loan *domain.Loan, updated *domain.CreditApplication) (*LoanMonitoringReport, error) {
	if err := updated.Validate(); err != nil {
		return nil, err
	}

	score := o.scorer.Score(updated)
	warning := o.analyzer.GenerateEarlyWarnings(updated)

	report := &LoanMonitoringReport{
		LoanID:       loan.ID,
		ApplicantID:  loan.ApplicantID,
		GeneratedAt:  time.Now().UTC(),
		CurrentScore: score,
		ScoreDelta:   score.OverallScore - loan.OriginalScore,
		Warning:      warning,
	}

	report.Action = monitoringAction(warning.Severity, report.ScoreDelta)
	return report, nil
}

// monitoringAction maps severity to action, with a large score drop
// escalating one level.
func monitoringAction(severity domain.WarningSeverity, scoreDelta float64) LoanMonitoringAction {
	action := ActionNone
	switch severity {
	case domain.SeverityCritical:
		action = ActionEscalate
	case domain.SeverityHigh:
		action = ActionRestructure
	case domain.SeverityMedium:
		action = ActionReview
	case domain.SeverityLow:
		action = ActionNone
	}

	if scoreDelta < -75 {
		switch action {
		case ActionNone:
			action = ActionMonitor
		case ActionMonitor:
			action = ActionReview
		case ActionReview:
			action = ActionRestructure
		case ActionRestructure:
			action = ActionEscalate
		}
	}

	return action
}

// PortfolioReport aggregates a batch scoring run.
type PortfolioReport struct {
	GeneratedAt time.Time                            `json:"generatedAt"`
	Scores      map[string]*domain.CreditScoreResult `json:"scores"`
	Errors      []domain.BatchItemError              `json:"errors,omitempty"`
	Risk        *domain.PortfolioRisk                `json:"risk"`
	TopRisks    []string                             `json:"topRisks"` // applicant IDs, riskiest first
}

// ScorePortfolio fans out one scoring task per application, joins the
// results and aggregates them into a portfolio risk view. Items are
// isolated: a malformed application is reported, not fatal.
func (o *Orchestrator) ScorePortfolio(ctx context.Context, apps []*domain.CreditApplication) *PortfolioReport {
	report := &PortfolioReport{
		GeneratedAt: time.Now().UTC(),
		Scores:      make(map[string]*domain.CreditScoreResult, len(apps)),
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	sem := make(chan struct{}, o.maxFan)

	for _, app := range apps {
		wg.Add(1)
		go func(app *domain.CreditApplication) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			if err := app.Validate(); err != nil {
				mu.Lock()
				report.Errors = append(report.Errors, domain.BatchItemError{
					ApplicantID: app.ApplicantID,
					Error:       err.Error(),
				})
				mu.Unlock()
				return
			}

			score := o.scorer.Score(app)
			mu.Lock()
			report.Scores[app.ApplicantID] = score
			mu.Unlock()
		}(app)
	}

	wg.Wait()

	// Build the loan book from requested amounts and aggregate.
	loans := make([]*domain.Loan, 0, len(report.Scores))
	for _, app := range apps {
		score, ok := report.Scores[app.ApplicantID]
		if !ok {
			continue
		}
		loans = append(loans, &domain.Loan{
			ApplicantID:        app.ApplicantID,
			Amount:             app.LoanRequest.Amount,
			Term:               app.LoanRequest.Term,
			Industry:           app.BusinessInfo.Industry,
			DefaultProbability: score.DefaultProbability,
		})
	}
	report.Risk = o.analyzer.AnalyzePortfolioRisk(loans)

	// Rank the riskiest applicants.
	sort.SliceStable(loans, func(i, j int) bool {
		return loans[i].DefaultProbability > loans[j].DefaultProbability
	})
	for i, loan := range loans {
		if i == 5 {
			break
		}
		report.TopRisks = append(report.TopRisks, loan.ApplicantID)
	}

	return report
}

// ComparisonReport ranks applications against each other.
type ComparisonReport struct {
	GeneratedAt   time.Time               `json:"generatedAt"`
	Ranked        []*ComparisonEntry      `json:"ranked"` // best first
	BestCandidate string                  `json:"bestCandidate"`
	Errors        []domain.BatchItemError `json:"errors,omitempty"`
}

// ComparisonEntry is one applicant's standing in a comparison.
type ComparisonEntry struct {
	ApplicantID        string          `json:"applicantId"`
	BusinessName       string          `json:"businessName"`
	OverallScore       float64         `json:"overallScore"`
	Rating             domain.Rating   `json:"rating"`
	DefaultProbability float64         `json:"defaultProbability"`
	Decision           domain.Decision `json:"decision"`
}

// CompareApplications scores each application concurrently and ranks
// them by overall score, naming the best candidate.
func (o *Orchestrator) CompareApplications(ctx context.Context, apps []*domain.CreditApplication) *ComparisonReport {
	report := &ComparisonReport{
		GeneratedAt: time.Now().UTC(),
	}

	entries := make([]*ComparisonEntry, len(apps))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	sem := make(chan struct{}, o.maxFan)

	for i, app := range apps {
		wg.Add(1)
		go func(idx int, app *domain.CreditApplication) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			if err := app.Validate(); err != nil {
				mu.Lock()
				report.Errors = append(report.Errors, domain.BatchItemError{
					ApplicantID: app.ApplicantID,
					Error:       err.Error(),
				})
				mu.Unlock()
				return
			}

			score := o.scorer.Score(app)
			entries[idx] = &ComparisonEntry{
				ApplicantID:        app.ApplicantID,
				BusinessName:       app.BusinessInfo.BusinessName,
				OverallScore:       score.OverallScore,
				Rating:             score.Rating,
				DefaultProbability: score.DefaultProbability,
				Decision:           score.Recommendation.Decision,
			}
		}(i, app)
	}

	wg.Wait()

	for _, e := range entries {
		if e != nil {
			report.Ranked = append(report.Ranked, e)
		}
	}
	sort.SliceStable(report.Ranked, func(i, j int) bool {
		return report.Ranked[i].OverallScore > report.Ranked[j].OverallScore
	})

	if len(report.Ranked) > 0 {
		report.BestCandidate = report.Ranked[0].ApplicantID
	}

	return report
}

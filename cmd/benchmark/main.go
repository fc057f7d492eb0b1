// Benchmark tool for backtesting Kestrel against historical loan outcomes.
//
// Usage:
//
//	go run cmd/benchmark/main.go -csv /path/to/loanbook.csv -url http://localhost:8080
//
// This tool:
//  1. Reads historical loan applications (with default labels)
//  2. Sends each application to Kestrel for an instant decision
//  3. Compares Kestrel's decision (decline/review vs approve) with actual outcomes
//  4. Calculates precision, recall, F1-score, and confusion matrix
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// LoanRecord represents a row from the historical loan book CSV.
type LoanRecord struct {
	ApplicantID     string
	CreditScore     int
	BusinessScore   int
	OnTimePayments  int
	LatePayments    int
	Utilization     float64
	Bankruptcies    int
	AnnualRevenue   float64
	ProfitMargin    float64
	CashReserves    float64
	MonthlyExpenses float64
	YearsInBusiness float64
	Industry        string
	LoanAmount      float64
	TermMonths      int
	Defaulted       bool
}

// DecisionResponse is the subset of the instant decision payload we score on.
type DecisionResponse struct {
	ID                   string  `json:"id"`
	Decision             string  `json:"decision"`
	Reason               string  `json:"reason"`
	RequiresManualReview bool    `json:"requiresManualReview"`
	ProcessingTimeMs     float64 `json:"processingTimeMs"`
}

// Metrics tracks backtest results. A "positive" prediction is a decline.
type Metrics struct {
	TruePositives  int64 // Defaulted loan declined
	FalsePositives int64 // Repaid loan declined (lost business)
	TrueNegatives  int64 // Repaid loan approved
	FalseNegatives int64 // Defaulted loan approved (credit loss!)

	TotalProcessed int64
	TotalDefaults  int64
	TotalRepaid    int64
	TotalReviews   int64
	TotalErrors    int64

	ProcessingTimeMs int64
}

func main() {
	// Parse flags
	csvPath := flag.String("csv", "", "Path to historical loan book CSV file")
	baseURL := flag.String("url", "http://localhost:8080", "Kestrel base URL")
	tenantID := flag.String("tenant", "benchmark-test", "Tenant ID for requests")
	limit := flag.Int("limit", 10000, "Maximum applications to process (0 = all)")
	workers := flag.Int("workers", 10, "Number of concurrent workers")
	defaultsOnly := flag.Bool("defaults-only", false, "Only test defaulted loans")
	sampleRate := flag.Float64("sample", 1.0, "Sample rate for repaid loans (0.0-1.0)")
	reviewAsDecline := flag.Bool("review-as-decline", false, "Count manual review as a decline")
	verbose := flag.Bool("verbose", false, "Print each application result")
	flag.Parse()

	if *csvPath == "" {
		fmt.Println("Usage: benchmark -csv /path/to/loanbook.csv [-url http://localhost:8080]")
		fmt.Println("\nFlags:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Println("╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║          KESTREL BENCHMARK - Loan Decision Backtest           ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")
	fmt.Printf("\nCSV File:    %s\n", *csvPath)
	fmt.Printf("Kestrel URL: %s\n", *baseURL)
	fmt.Printf("Tenant ID:   %s\n", *tenantID)
	fmt.Printf("Workers:     %d\n", *workers)
	fmt.Printf("Limit:       %d\n", *limit)
	fmt.Printf("Defaults Only: %v\n", *defaultsOnly)
	fmt.Printf("Sample Rate: %.2f\n", *sampleRate)
	fmt.Println()

	// Check Kestrel is running
	if err := checkHealth(*baseURL); err != nil {
		fmt.Printf("ERROR: Kestrel not reachable at %s: %v\n", *baseURL, err)
		fmt.Println("\nMake sure Kestrel is running:")
		fmt.Println("  cd kestrel && go run cmd/kestrel/main.go")
		os.Exit(1)
	}
	fmt.Println("✓ Kestrel is healthy")

	// Read loan book data
	fmt.Printf("\nReading loan book from %s...\n", *csvPath)
	records, err := readLoanBookCSV(*csvPath, *limit, *defaultsOnly, *sampleRate)
	if err != nil {
		fmt.Printf("ERROR: Failed to read CSV: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Loaded %d applications\n", len(records))

	// Count defaulted vs repaid
	defaultCount := 0
	for _, rec := range records {
		if rec.Defaulted {
			defaultCount++
		}
	}
	fmt.Printf("  - Defaulted: %d (%.2f%%)\n", defaultCount, 100*float64(defaultCount)/float64(len(records)))
	fmt.Printf("  - Repaid:    %d (%.2f%%)\n", len(records)-defaultCount, 100*float64(len(records)-defaultCount)/float64(len(records)))

	// Run backtest
	fmt.Printf("\nRunning backtest with %d workers...\n", *workers)
	startTime := time.Now()
	metrics := runBacktest(records, *baseURL, *tenantID, *workers, *reviewAsDecline, *verbose)
	duration := time.Since(startTime)

	// Print results
	printResults(metrics, duration)
}

func checkHealth(baseURL string) error {
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func readLoanBookCSV(path string, limit int, defaultsOnly bool, sampleRate float64) ([]LoanRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// Read header
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	// Map column indices
	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}

	var records []LoanRecord
	sampleCounter := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // Skip malformed rows
		}

		defaulted := record[colIndex["defaulted"]] == "1"

		// Apply filters
		if defaultsOnly && !defaulted {
			continue
		}

		// Sample repaid loans
		if !defaulted && sampleRate < 1.0 {
			sampleCounter++
			if float64(sampleCounter%100)/100.0 >= sampleRate {
				continue
			}
		}

		creditScore, _ := strconv.Atoi(record[colIndex["credit_score"]])
		businessScore, _ := strconv.Atoi(record[colIndex["business_score"]])
		onTime, _ := strconv.Atoi(record[colIndex["ontime_payments"]])
		late, _ := strconv.Atoi(record[colIndex["late_payments"]])
		utilization, _ := strconv.ParseFloat(record[colIndex["utilization"]], 64)
		bankruptcies, _ := strconv.Atoi(record[colIndex["bankruptcies"]])
		revenue, _ := strconv.ParseFloat(record[colIndex["annual_revenue"]], 64)
		margin, _ := strconv.ParseFloat(record[colIndex["profit_margin"]], 64)
		reserves, _ := strconv.ParseFloat(record[colIndex["cash_reserves"]], 64)
		expenses, _ := strconv.ParseFloat(record[colIndex["monthly_expenses"]], 64)
		years, _ := strconv.ParseFloat(record[colIndex["years_in_business"]], 64)
		amount, _ := strconv.ParseFloat(record[colIndex["loan_amount"]], 64)
		term, _ := strconv.Atoi(record[colIndex["term_months"]])

		rec := LoanRecord{
			ApplicantID:     record[colIndex["applicant_id"]],
			CreditScore:     creditScore,
			BusinessScore:   businessScore,
			OnTimePayments:  onTime,
			LatePayments:    late,
			Utilization:     utilization,
			Bankruptcies:    bankruptcies,
			AnnualRevenue:   revenue,
			ProfitMargin:    margin,
			CashReserves:    reserves,
			MonthlyExpenses: expenses,
			YearsInBusiness: years,
			Industry:        record[colIndex["industry"]],
			LoanAmount:      amount,
			TermMonths:      term,
			Defaulted:       defaulted,
		}

		records = append(records, rec)

		if limit > 0 && len(records) >= limit {
			break
		}
	}

	return records, nil
}

func runBacktest(records []LoanRecord, baseURL, tenantID string, numWorkers int, reviewAsDecline, verbose bool) *Metrics {
	metrics := &Metrics{}

	// Create work channel
	work := make(chan LoanRecord, 100)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: 10 * time.Second}

			for rec := range work {
				start := time.Now()
				result, err := decideApplication(client, baseURL, tenantID, rec)
				elapsed := time.Since(start).Milliseconds()

				atomic.AddInt64(&metrics.ProcessingTimeMs, elapsed)
				atomic.AddInt64(&metrics.TotalProcessed, 1)

				if err != nil {
					atomic.AddInt64(&metrics.TotalErrors, 1)
					if verbose {
						fmt.Printf("ERROR: %s -> %v\n", rec.ApplicantID, err)
					}
					continue
				}

				// Track actual labels
				if rec.Defaulted {
					atomic.AddInt64(&metrics.TotalDefaults, 1)
				} else {
					atomic.AddInt64(&metrics.TotalRepaid, 1)
				}
				if result.Decision == string(domain.InstantReview) || result.RequiresManualReview {
					atomic.AddInt64(&metrics.TotalReviews, 1)
				}

				// Calculate confusion matrix
				predicted := result.Decision == string(domain.InstantDecline)
				if reviewAsDecline && result.Decision == string(domain.InstantReview) {
					predicted = true
				}
				actual := rec.Defaulted

				if predicted && actual {
					atomic.AddInt64(&metrics.TruePositives, 1)
				} else if predicted && !actual {
					atomic.AddInt64(&metrics.FalsePositives, 1)
				} else if !predicted && !actual {
					atomic.AddInt64(&metrics.TrueNegatives, 1)
				} else { // !predicted && actual
					atomic.AddInt64(&metrics.FalseNegatives, 1)
				}

				if verbose {
					status := "✓"
					if (predicted && !actual) || (!predicted && actual) {
						status = "✗"
					}
					name := rec.ApplicantID
					if len(name) > 10 {
						name = name[:10]
					}
					fmt.Printf("%s %-10s | Credit: %3d | Amount: $%12.2f | Defaulted: %-5v | Kestrel: %-7s | %s\n",
						status,
						name,
						rec.CreditScore,
						rec.LoanAmount,
						rec.Defaulted,
						result.Decision,
						result.Reason,
					)
				}
			}
		}()
	}

	// Send work
	for _, rec := range records {
		work <- rec
	}
	close(work)

	// Wait for completion
	wg.Wait()

	return metrics
}

func decideApplication(client *http.Client, baseURL, tenantID string, rec LoanRecord) (*DecisionResponse, error) {
	// Build an application matching Kestrel's expected format. Fields the
	// loan book does not carry stay zero; the scorer clamps and defaults.
	history := make([]domain.PaymentRecord, 0, rec.OnTimePayments+rec.LatePayments)
	for i := 0; i < rec.OnTimePayments; i++ {
		history = append(history, domain.PaymentRecord{PaymentStatus: domain.PaymentOnTime})
	}
	for i := 0; i < rec.LatePayments; i++ {
		history = append(history, domain.PaymentRecord{PaymentStatus: domain.PaymentLate})
	}

	app := domain.CreditApplication{
		ApplicantID: rec.ApplicantID,
		TraditionalCredit: domain.TraditionalCredit{
			PersonalCreditScore: rec.CreditScore,
			BusinessCreditScore: rec.BusinessScore,
			PaymentHistory:      history,
			CreditUtilization:   rec.Utilization,
			Bankruptcies:        rec.Bankruptcies,
		},
		FinancialData: domain.FinancialData{
			AnnualRevenue:   rec.AnnualRevenue,
			MonthlyRevenue:  rec.AnnualRevenue / 12,
			MonthlyExpenses: rec.MonthlyExpenses,
			NetIncome:       rec.AnnualRevenue * rec.ProfitMargin,
			ProfitMargin:    rec.ProfitMargin,
			CashReserves:    rec.CashReserves,
		},
		BusinessInfo: domain.BusinessInfo{
			Industry:        rec.Industry,
			YearsInBusiness: rec.YearsInBusiness,
		},
		LoanRequest: domain.LoanRequest{
			Amount: rec.LoanAmount,
			Term:   rec.TermMonths,
		},
	}

	body, err := json.Marshal(app)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequest(http.MethodPost, baseURL+"/decisions/instant", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Tenant-ID", tenantID)

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var result DecisionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return &result, nil
}

func printResults(m *Metrics, duration time.Duration) {
	fmt.Println("\n╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                      BACKTEST RESULTS                         ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")

	fmt.Printf("\n📊 DATASET STATISTICS\n")
	fmt.Printf("   Total Processed:  %d\n", m.TotalProcessed)
	fmt.Printf("   Total Defaulted:  %d\n", m.TotalDefaults)
	fmt.Printf("   Total Repaid:     %d\n", m.TotalRepaid)
	fmt.Printf("   Manual Reviews:   %d\n", m.TotalReviews)
	fmt.Printf("   Errors:           %d\n", m.TotalErrors)

	fmt.Printf("\n📈 CONFUSION MATRIX\n")
	fmt.Println("                        Predicted")
	fmt.Println("                  Decline     Approve")
	fmt.Println("              ┌──────────┬──────────┐")
	fmt.Printf("   Actual  D  │ %8d │ %8d │  (TP, FN)\n", m.TruePositives, m.FalseNegatives)
	fmt.Println("              ├──────────┼──────────┤")
	fmt.Printf("           R  │ %8d │ %8d │  (FP, TN)\n", m.FalsePositives, m.TrueNegatives)
	fmt.Println("              └──────────┴──────────┘")

	// Calculate metrics
	precision := float64(0)
	if m.TruePositives+m.FalsePositives > 0 {
		precision = float64(m.TruePositives) / float64(m.TruePositives+m.FalsePositives)
	}

	recall := float64(0)
	if m.TruePositives+m.FalseNegatives > 0 {
		recall = float64(m.TruePositives) / float64(m.TruePositives+m.FalseNegatives)
	}

	f1 := float64(0)
	if precision+recall > 0 {
		f1 = 2 * (precision * recall) / (precision + recall)
	}

	accuracy := float64(0)
	total := m.TruePositives + m.TrueNegatives + m.FalsePositives + m.FalseNegatives
	if total > 0 {
		accuracy = float64(m.TruePositives+m.TrueNegatives) / float64(total)
	}

	fmt.Printf("\n🎯 DECISION METRICS\n")
	fmt.Printf("   Precision:  %.4f  (of declines, how many would have defaulted)\n", precision)
	fmt.Printf("   Recall:     %.4f  (of defaults, how many did we decline)\n", recall)
	fmt.Printf("   F1-Score:   %.4f  (harmonic mean of precision & recall)\n", f1)
	fmt.Printf("   Accuracy:   %.4f  (overall correct decisions)\n", accuracy)

	// Risk analysis
	fmt.Printf("\n🔍 RISK ANALYSIS\n")
	if m.TotalDefaults > 0 {
		catchRate := float64(m.TruePositives) / float64(m.TotalDefaults) * 100
		missRate := float64(m.FalseNegatives) / float64(m.TotalDefaults) * 100
		fmt.Printf("   Defaults Declined:   %d / %d (%.2f%%)\n", m.TruePositives, m.TotalDefaults, catchRate)
		fmt.Printf("   Defaults Approved:   %d / %d (%.2f%%) ⚠️\n", m.FalseNegatives, m.TotalDefaults, missRate)
	}
	if m.TotalRepaid > 0 {
		lostBusinessRate := float64(m.FalsePositives) / float64(m.TotalRepaid) * 100
		fmt.Printf("   Good Loans Declined: %d / %d (%.2f%%)\n", m.FalsePositives, m.TotalRepaid, lostBusinessRate)
	}

	fmt.Printf("\n⏱️  PERFORMANCE\n")
	fmt.Printf("   Total Duration:   %v\n", duration.Round(time.Millisecond))
	if m.TotalProcessed > 0 {
		avgMs := float64(m.ProcessingTimeMs) / float64(m.TotalProcessed)
		aps := float64(m.TotalProcessed) / duration.Seconds()
		fmt.Printf("   Avg Latency:      %.2f ms\n", avgMs)
		fmt.Printf("   Throughput:       %.2f apps/sec\n", aps)
	}

	// Interpretation
	fmt.Printf("\n💡 INTERPRETATION\n")
	if recall >= 0.9 {
		fmt.Println("   ✅ Excellent recall - declining most future defaults")
	} else if recall >= 0.7 {
		fmt.Println("   ⚠️  Good recall - but approving some future defaults")
	} else if recall >= 0.5 {
		fmt.Println("   ⚠️  Moderate recall - significant credit losses ahead")
	} else {
		fmt.Println("   ❌ Poor recall - most future defaults are being approved!")
	}

	if precision >= 0.5 {
		fmt.Println("   ✅ Good precision - declines are meaningful")
	} else if precision >= 0.2 {
		fmt.Println("   ⚠️  Low precision - turning away too much good business")
	} else {
		fmt.Println("   ❌ Very low precision - mostly declining good borrowers")
	}

	fmt.Println()
}

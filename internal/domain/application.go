// Package domain defines the core interfaces and types for Kestrel.
package domain

import (
	"errors"
	"fmt"
)

// ErrMalformedApplication indicates an application missing required numeric fields.
var ErrMalformedApplication = errors.New("malformed application")

// CreditApplication is the immutable input to the scoring pipeline.
// The engine never mutates it; every invocation produces a fresh result.
type CreditApplication struct {
	ApplicantID string `json:"applicantId"`
	TenantID    string `json:"tenantId,omitempty"`

	TraditionalCredit TraditionalCredit `json:"traditionalCredit"`
	FinancialData     FinancialData     `json:"financialData"`
	BusinessInfo      BusinessInfo      `json:"businessInfo"`
	AlternativeData   AlternativeData   `json:"alternativeData"`
	LoanRequest       LoanRequest       `json:"loanRequest"`
}

// TraditionalCredit holds credit-bureau sourced data.
type TraditionalCredit struct {
	PersonalCreditScore int             `json:"personalCreditScore"` // 300-850
	BusinessCreditScore int             `json:"businessCreditScore"` // 0-100, 0 = not reported
	PaymentHistory      []PaymentRecord `json:"paymentHistory"`
	CreditUtilization   float64         `json:"creditUtilization"` // percent, 0-100
	Bankruptcies        int             `json:"bankruptcies"`
	Foreclosures        int             `json:"foreclosures"`
	Collections         int             `json:"collections"`
	OldestAccountAge    int             `json:"oldestAccountAge"` // months
	Inquiries           int             `json:"inquiries"`
	TotalDebt           float64         `json:"totalDebt"`
}

// PaymentRecord is a single entry in the ordered payment history.
type PaymentRecord struct {
	PaymentStatus string `json:"paymentStatus"` // "on_time" or "late"
}

// Payment status values.
const (
	PaymentOnTime = "on_time"
	PaymentLate   = "late"
)

// FinancialData holds income-statement and balance-sheet figures.
type FinancialData struct {
	AnnualRevenue     float64 `json:"annualRevenue"`
	MonthlyRevenue    float64 `json:"monthlyRevenue"`
	MonthlyExpenses   float64 `json:"monthlyExpenses"`
	NetIncome         float64 `json:"netIncome"`
	ProfitMargin      float64 `json:"profitMargin"` // fraction, e.g. 0.15
	CashReserves      float64 `json:"cashReserves"`
	Assets            float64 `json:"assets"`
	Liabilities       float64 `json:"liabilities"`
	RevenueGrowthRate float64 `json:"revenueGrowthRate"` // fraction, may be negative
}

// BusinessInfo describes the applicant's business.
type BusinessInfo struct {
	BusinessName        string            `json:"businessName"`
	Industry            string            `json:"industry"`
	YearsInBusiness     float64           `json:"yearsInBusiness"`
	BusinessStructure   BusinessStructure `json:"businessStructure"`
	NumberOfEmployees   int               `json:"numberOfEmployees"`
	Locations           int               `json:"locations"`
	OwnershipPercentage float64           `json:"ownershipPercentage"` // 0-100
}

// BusinessStructure is the legal form of the business.
type BusinessStructure string

const (
	StructureCorporation    BusinessStructure = "corporation"
	StructureSCorp          BusinessStructure = "s_corporation"
	StructureLLC            BusinessStructure = "llc"
	StructurePartnership    BusinessStructure = "partnership"
	StructureSoleProprietor BusinessStructure = "sole_proprietorship"
)

// Known industry buckets. Unknown industries fall into IndustryDefault.
const (
	IndustryTechnology    = "technology"
	IndustryHealthcare    = "healthcare"
	IndustryManufacturing = "manufacturing"
	IndustryRetail        = "retail"
	IndustryRestaurants   = "restaurants"
	IndustryConstruction  = "construction"
	IndustryProfessional  = "professional_services"
	IndustryTransport     = "transportation"
	IndustryHospitality   = "hospitality"
	IndustryAgriculture   = "agriculture"
	IndustryRealEstate    = "real_estate"
	IndustryDefault       = "other"
)

// AlternativeData carries non-bureau behavioral signals.
type AlternativeData struct {
	BankingBehavior       BankingBehavior       `json:"bankingBehavior"`
	BusinessMetrics       BusinessMetrics       `json:"businessMetrics"`
	DigitalFootprint      DigitalFootprint      `json:"digitalFootprint"`
	SupplierRelationships SupplierRelationships `json:"supplierRelationships"`
	CustomerBehavior      CustomerBehavior      `json:"customerBehavior"`
}

// BankingBehavior summarizes bank account activity.
type BankingBehavior struct {
	AverageDailyBalance float64 `json:"averageDailyBalance"`
	OverdraftCount      int     `json:"overdraftCount"`     // last 12 months
	DepositFrequency    int     `json:"depositFrequency"`   // deposits per month
	CashFlowVolatility  float64 `json:"cashFlowVolatility"` // 0-1
}

// BusinessMetrics summarizes operational performance.
type BusinessMetrics struct {
	RepeatCustomerRate     float64 `json:"repeatCustomerRate"` // 0-1
	CustomerChurnRate      float64 `json:"customerChurnRate"`  // 0-1
	MonthlyActiveCustomers int     `json:"monthlyActiveCustomers"`
}

// DigitalFootprint summarizes online presence.
type DigitalFootprint struct {
	OnlineReviewRating float64 `json:"onlineReviewRating"` // 0-5
	ReviewCount        int     `json:"reviewCount"`
	WebsiteTrafficRank float64 `json:"websiteTrafficRank"` // 0-1, higher is better
}

// SupplierRelationships summarizes trade-credit behavior.
type SupplierRelationships struct {
	AverageRelationshipYears float64 `json:"averageRelationshipYears"`
	OnTimePaymentRate        float64 `json:"onTimePaymentRate"` // 0-1
	SupplierCount            int     `json:"supplierCount"`
}

// CustomerBehavior summarizes revenue quality.
type CustomerBehavior struct {
	AverageTransactionValue float64 `json:"averageTransactionValue"`
	TransactionFrequency    int     `json:"transactionFrequency"` // per month
	SeasonalityIndex        float64 `json:"seasonalityIndex"`     // 0-1, lower is steadier
}

// LoanRequest is the requested facility.
type LoanRequest struct {
	Amount float64 `json:"amount"`
	Term   int     `json:"term"` // months
}

// Validate rejects applications missing required numeric fields.
// Range violations are not errors: the engine clamps them during scoring.
func (a *CreditApplication) Validate() error {
	if a.ApplicantID == "" {
		return fmt.Errorf("%w: applicantId is required", ErrMalformedApplication)
	}
	if a.TraditionalCredit.PersonalCreditScore == 0 {
		return fmt.Errorf("%w: traditionalCredit.personalCreditScore is required", ErrMalformedApplication)
	}
	if a.FinancialData.AnnualRevenue == 0 && a.FinancialData.MonthlyRevenue == 0 {
		return fmt.Errorf("%w: financialData revenue figures are required", ErrMalformedApplication)
	}
	if a.LoanRequest.Amount <= 0 {
		return fmt.Errorf("%w: loanRequest.amount must be positive", ErrMalformedApplication)
	}
	if a.LoanRequest.Term <= 0 {
		return fmt.Errorf("%w: loanRequest.term must be positive", ErrMalformedApplication)
	}
	return nil
}

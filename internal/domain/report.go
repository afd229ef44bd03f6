package domain

// Profit-tier thresholds in THB. These mirror the operator's current policy
// and are deliberately constants, not configuration; product owns them.
const (
	TierHighMin   = 50000.0
	TierMediumMin = 10000.0
)

// AgentIdentity is the nested identity block of one agent row.
type AgentIdentity struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
	Username string `json:"username"`
}

// AgentPerformanceRecord is one agent's raw figures for the queried range.
// BetAmt carries sign on the wire; every ratio consumes it via absolute
// value.
type AgentPerformanceRecord struct {
	Identity     AgentIdentity `json:"_id"`
	AgentTotal   float64       `json:"agentTotal"`
	CompanyWl    float64       `json:"companyWl"`
	MemberTotal  float64       `json:"memberTotal"`
	BetAmt       float64       `json:"betAmt"`
	ValidAmt     float64       `json:"validAmt"`
	WinLoseTotal float64       `json:"winLoseTotal"`
}

// DerivedMetrics are the ratio annotations computed per agent. All values
// are percentages except the USDT conversions. Zero denominators yield 0.
type DerivedMetrics struct {
	WinRate         float64 `json:"winRate"`
	ValidRatio      float64 `json:"validRatio"`
	ProfitMargin    float64 `json:"profitMargin"`
	ROI             float64 `json:"roi"`
	AgentTotalUSDT  float64 `json:"agentTotalUsdt"`
	CompanyWlUSDT   float64 `json:"companyWlUsdt"`
	MemberTotalUSDT float64 `json:"memberTotalUsdt"`
}

// AnnotatedAgent is one report row ready for display.
type AnnotatedAgent struct {
	AgentPerformanceRecord
	Metrics DerivedMetrics `json:"metrics"`
}

// ReportSummary is the footer roll-up of the report payload.
type ReportSummary struct {
	AgentTotal  float64 `json:"agentTotal"`
	CompanyWl   float64 `json:"companyWl"`
	MemberTotal float64 `json:"memberTotal"`
	BetAmt      float64 `json:"betAmt"`
	ValidAmt    float64 `json:"validAmt"`
}

// ProfitTierCounts buckets agents by net profit. Partition:
// high > 50000 >= medium > 10000 >= low > 0 >= loss.
type ProfitTierCounts struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
	Loss   int `json:"loss"`
}

// ReportAnalytics holds the cross-agent figures shown on the analytics
// cards: averages, counts, and the best/worst performers.
type ReportAnalytics struct {
	AverageWinRate        float64          `json:"averageWinRate"`
	AverageROI            float64          `json:"averageRoi"`
	ValidBetRatio         float64          `json:"validBetRatio"`
	ProfitableAgents      int              `json:"profitableAgents"`
	ProfitableAgentsRatio float64          `json:"profitableAgentsRatio"`
	RiskLevel             string           `json:"riskLevel"`
	Tiers                 ProfitTierCounts `json:"tiers"`
	TopPerformer          *AnnotatedAgent  `json:"topPerformer,omitempty"`
	BottomPerformer       *AnnotatedAgent  `json:"bottomPerformer,omitempty"`
	TopBettor             *AnnotatedAgent  `json:"topBettor,omitempty"`
}

// PerformanceReport is the full reconciled view for one date range.
type PerformanceReport struct {
	Summary   ReportSummary    `json:"summary"`
	Agents    []AnnotatedAgent `json:"agents"`
	Analytics ReportAnalytics  `json:"analytics"`
	Rate      ExchangeRate     `json:"rate"`
	Page      int              `json:"page"`
	PageSize  int              `json:"pageSize"`
	TotalRows int              `json:"totalRows"`
}

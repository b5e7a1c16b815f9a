// Package sim is the real-time simulation core: market model, financial
// calculators, property and loan state machines, the tick processor and the
// offline catch-up processor. Everything here is pure: no I/O, no wall
// clock, no package-level randomness. Callers pass "now" as Unix
// milliseconds and inject a random source; processors return new values and
// never mutate their inputs.
package sim

type Strategy string

const (
	StrategyNone Strategy = "none"
	StrategyHold Strategy = "hold"
	StrategyRent Strategy = "rent"
	StrategyFlip Strategy = "flip"
)

// Condition is a four-step ladder; renovation advances it one step,
// saturating at the top.
type Condition string

const (
	ConditionRuined       Condition = "убитая"
	ConditionNeedsRepairs Condition = "требует ремонта"
	ConditionNormal       Condition = "нормальная"
	ConditionRenovated    Condition = "после ремонта"
)

type Phase string

const (
	PhaseGrowth    Phase = "growth"
	PhaseStability Phase = "stability"
	PhaseCrisis    Phase = "crisis"
)

type LoanType string

const (
	LoanMortgage LoanType = "ипотека"
	LoanSecured  LoanType = "залог"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

type Property struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	District        string    `json:"district"`
	Type            string    `json:"type"`
	Condition       Condition `json:"condition"`
	PurchasePrice   int64     `json:"purchasePrice"`
	CurrentValue    int64     `json:"currentValue"`
	BaseRent        int64     `json:"baseRent"`
	MonthlyExpenses int64     `json:"monthlyExpenses"`

	Strategy  Strategy `json:"strategy"`
	SalePrice int64    `json:"salePrice,omitempty"` // asking price, flip only
	LoanID    string   `json:"loanId,omitempty"`    // at most one active loan

	RentIntervalMs int64 `json:"rentIntervalMs"`
	NextRentAt     int64 `json:"nextRentAt,omitempty"` // 0 = no rent schedule

	IsUnderRenovation  bool  `json:"isUnderRenovation"`
	RenovationStartsAt int64 `json:"renovationStartsAt,omitempty"`
	RenovationEndsAt   int64 `json:"renovationEndsAt,omitempty"`
	RenovationSpent    int64 `json:"renovationSpent"` // lifetime renovation outlay, reduces sale tax

	PurchasedAt int64 `json:"purchasedAt"`
}

type Loan struct {
	ID                 string   `json:"id"`
	PropertyID         string   `json:"propertyId,omitempty"`
	Type               LoanType `json:"type"`
	Principal          int64    `json:"principal"`
	RemainingPrincipal int64    `json:"remainingPrincipal"`
	AnnualRate         float64  `json:"annualRate"`
	MonthlyPayment     int64    `json:"monthlyPayment"`
	PaymentIntervalMs  int64    `json:"paymentIntervalMs"`
	NextPaymentAt      int64    `json:"nextPaymentAt"`
}

type Stats struct {
	TotalSales       int64 `json:"totalSales"`
	TotalRentIncome  int64 `json:"totalRentIncome"`
	TotalRenovations int64 `json:"totalRenovations"`
	PropertiesOwned  int64 `json:"propertiesOwned"` // max concurrently owned
}

type Player struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Difficulty string `json:"difficulty"`

	Cash       int64 `json:"cash"`
	NetWorth   int64 `json:"netWorth"`
	Experience int64 `json:"experience"`
	Level      int   `json:"level"`

	Properties []Property `json:"properties"`
	Loans      []Loan     `json:"loans"`
	Stats      Stats      `json:"stats"`

	CreatedAt    int64 `json:"createdAt"`
	LastSyncedAt int64 `json:"lastSyncedAt"`

	// Throttle markers for the once-per-interval tick steps.
	LastExpenseAppliedAt   int64 `json:"lastExpenseAppliedAt,omitempty"`
	LastValuationAppliedAt int64 `json:"lastValuationAppliedAt,omitempty"`
}

// MarketEvent is a catalogue entry with an absolute activity window.
// Percentage modifiers apply multiplicatively at the point of use; they are
// never baked into the stored indices.
type MarketEvent struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	StartsAt       int64   `json:"startsAt"`
	EndsAt         int64   `json:"endsAt"`
	PricePercent   float64 `json:"pricePercent"`
	RentPercent    float64 `json:"rentPercent"`
	VacancyPercent float64 `json:"vacancyPercent"`
}

type Market struct {
	Phase       Phase   `json:"phase"`
	PriceIndex  float64 `json:"priceIndex"`
	RentIndex   float64 `json:"rentIndex"`
	VacancyRate float64 `json:"vacancyRate"`

	// Catalogue is the full event list; ActiveEvents is the derived subset
	// whose window contains the last processed "now".
	Catalogue    []MarketEvent `json:"catalogue"`
	ActiveEvents []MarketEvent `json:"activeEvents"`

	LastUpdatedAt int64 `json:"lastUpdatedAt"`
}

// Event is a narration record of something the simulation did: rent credited,
// loan paid, renovation finished. Append-only; callers truncate for storage.
type Event struct {
	ID        string   `json:"id"`
	Timestamp int64    `json:"timestamp"`
	Message   string   `json:"message"`
	Type      Severity `json:"type"`
}

// Result is the tagged outcome of a player action. Failed actions leave the
// player untouched; Message is host-renderable and never a transport error.
type Result struct {
	OK      bool   `json:"success"`
	Message string `json:"message"`
}

func ok(msg string) Result   { return Result{OK: true, Message: msg} }
func fail(msg string) Result { return Result{OK: false, Message: msg} }

// Clone returns a deep copy; processors clone their inputs before touching
// anything so the caller's snapshot stays valid on failure.
func (p Player) Clone() Player {
	out := p
	out.Properties = make([]Property, len(p.Properties))
	copy(out.Properties, p.Properties)
	out.Loans = make([]Loan, len(p.Loans))
	copy(out.Loans, p.Loans)
	return out
}

func (m Market) Clone() Market {
	out := m
	out.Catalogue = make([]MarketEvent, len(m.Catalogue))
	copy(out.Catalogue, m.Catalogue)
	out.ActiveEvents = make([]MarketEvent, len(m.ActiveEvents))
	copy(out.ActiveEvents, m.ActiveEvents)
	return out
}

// Property lookup helpers.

func (p *Player) PropertyByID(id string) (*Property, bool) {
	for i := range p.Properties {
		if p.Properties[i].ID == id {
			return &p.Properties[i], true
		}
	}
	return nil, false
}

func (p *Player) LoanByID(id string) (*Loan, bool) {
	for i := range p.Loans {
		if p.Loans[i].ID == id {
			return &p.Loans[i], true
		}
	}
	return nil, false
}

// NextCondition advances one step along the condition ladder, saturating at
// the top.
func NextCondition(c Condition) Condition {
	switch c {
	case ConditionRuined:
		return ConditionNeedsRepairs
	case ConditionNeedsRepairs:
		return ConditionNormal
	case ConditionNormal:
		return ConditionRenovated
	default:
		return c
	}
}

// Package rules holds the game-design reference configuration: loan presets,
// renovation tiers, market drift parameters, flip-sale bands, experience
// tables and the market event catalogue. It is loaded once at startup and
// passed explicitly to the simulation; a missing or invalid rules set is a
// startup error, never a silent default at the point of use.
package rules

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

const (
	DifficultyEasy   = "easy"
	DifficultyNormal = "normal"
	DifficultyHard   = "hard"

	TierCosmetic = "cosmetic"
	TierMajor    = "major"
)

type Rules struct {
	Timers     Timers                    `yaml:"timers"`
	Market     MarketRules               `yaml:"market"`
	Loans      LoanRules                 `yaml:"loans"`
	Renovation map[string]RenovationTier `yaml:"renovation"`
	Flip       FlipRules                 `yaml:"flip"`
	Tax        TaxRules                  `yaml:"tax"`
	Experience ExperienceRules           `yaml:"experience"`
	Levels     []LevelStep               `yaml:"levels"`
	Starting   StartingRules             `yaml:"starting"`
	Events     []EventTemplate           `yaml:"events"`
	Listings   []ListingTemplate         `yaml:"listings"`
}

// Timers are the wall-clock intervals one simulated month maps onto.
type Timers struct {
	RentIntervalMs        int64 `yaml:"rent_interval_ms"`
	LoanPaymentIntervalMs int64 `yaml:"loan_payment_interval_ms"`
	MarketUpdateIntervalMs int64 `yaml:"market_update_interval_ms"`
}

type MarketRules struct {
	PhaseChangeProb float64 `yaml:"phase_change_prob"`

	// Multiplicative per-tick drift factors.
	Growth Drift `yaml:"growth"`
	Crisis Drift `yaml:"crisis"`

	// Stability pulls indices toward 1.0 and vacancy toward BaseVacancy.
	RelaxIndexWeight   float64 `yaml:"relax_index_weight"`
	RelaxVacancyWeight float64 `yaml:"relax_vacancy_weight"`

	PriceIndexCeil float64 `yaml:"price_index_ceil"`
	PriceIndexFloor float64 `yaml:"price_index_floor"`
	RentIndexCeil  float64 `yaml:"rent_index_ceil"`
	RentIndexFloor float64 `yaml:"rent_index_floor"`
	VacancyFloor   float64 `yaml:"vacancy_floor"`
	VacancyCeil    float64 `yaml:"vacancy_ceil"`
	BaseVacancy    float64 `yaml:"base_vacancy"`

	// Per-tick valuation multipliers by phase.
	GrowthValueMult float64 `yaml:"growth_value_mult"`
	CrisisValueMult float64 `yaml:"crisis_value_mult"`

	// A property never drops below this share of its purchase price.
	ValueFloorShare float64 `yaml:"value_floor_share"`
}

type Drift struct {
	Price   float64 `yaml:"price"`
	Rent    float64 `yaml:"rent"`
	Vacancy float64 `yaml:"vacancy"`
}

type LoanRules struct {
	Presets map[string]LoanPreset `yaml:"presets"`

	MortgageDownPaymentShare float64 `yaml:"mortgage_down_payment_share"`
	MortgageTermMonths       int     `yaml:"mortgage_term_months"`

	SecuredShare      float64 `yaml:"secured_share"`
	SecuredTermMonths int     `yaml:"secured_term_months"`
	SecuredRateMarkup float64 `yaml:"secured_rate_markup"`
}

type LoanPreset struct {
	BaseInterestRate float64 `yaml:"base_interest_rate"`
	MaxLTV           float64 `yaml:"max_ltv"`
	Description      string  `yaml:"description"`
}

type RenovationTier struct {
	CostShare  float64 `yaml:"cost_share"`
	DurationMs int64   `yaml:"duration_ms"`
	ValueMult  float64 `yaml:"value_mult"`
	Experience int64   `yaml:"experience"`
}

// FlipRules maps asking-price/market-value ratio bands to per-tick sale
// chances. Bands are checked in ascending MaxRatio order; DefaultChance
// applies above the last band.
type FlipRules struct {
	Bands         []FlipBand `yaml:"bands"`
	DefaultChance float64    `yaml:"default_chance"`
}

type FlipBand struct {
	MaxRatio float64 `yaml:"max_ratio"`
	Chance   float64 `yaml:"chance"`
}

type TaxRules struct {
	SaleProfitRate float64 `yaml:"sale_profit_rate"`
}

type ExperienceRules struct {
	RentDivisor     int64 `yaml:"rent_divisor"`
	PurchaseAward   int64 `yaml:"purchase_award"`
	SaleAward       int64 `yaml:"sale_award"`
	AchievementAward int64 `yaml:"achievement_award"`
}

type LevelStep struct {
	Level      int    `yaml:"level"`
	Experience int64  `yaml:"experience"`
	Title      string `yaml:"title"`
}

type StartingRules struct {
	Cash map[string]int64 `yaml:"cash"`
}

// EventTemplate describes a catalogue entry relative to game creation;
// absolute [StartsAt, EndsAt) windows are materialized at bootstrap.
type EventTemplate struct {
	ID             string  `yaml:"id"`
	Name           string  `yaml:"name"`
	Description    string  `yaml:"description"`
	StartMonth     int     `yaml:"start_month"`
	DurationMonths int     `yaml:"duration_months"`
	PricePercent   float64 `yaml:"price_percent"`
	RentPercent    float64 `yaml:"rent_percent"`
	VacancyPercent float64 `yaml:"vacancy_percent"`
}

type ListingTemplate struct {
	Name            string `yaml:"name"`
	District        string `yaml:"district"`
	Type            string `yaml:"type"`
	Price           int64  `yaml:"price"`
	BaseRent        int64  `yaml:"base_rent"`
	MonthlyExpenses int64  `yaml:"monthly_expenses"`
	Condition       string `yaml:"condition"`
}

// Load reads a rules file and validates it. An empty path returns the
// built-in defaults.
func Load(path string) (*Rules, error) {
	if path == "" {
		r := Default()
		return r, r.Validate()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	r := Default()
	if err := yaml.Unmarshal(raw, r); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("rules file %s: %w", path, err)
	}
	return r, nil
}

func (r *Rules) Validate() error {
	if r.Timers.RentIntervalMs <= 0 {
		return fmt.Errorf("timers.rent_interval_ms must be > 0")
	}
	if r.Timers.LoanPaymentIntervalMs <= 0 {
		return fmt.Errorf("timers.loan_payment_interval_ms must be > 0")
	}
	if r.Market.PhaseChangeProb < 0 || r.Market.PhaseChangeProb > 1 {
		return fmt.Errorf("market.phase_change_prob must be within [0, 1]")
	}
	if r.Market.ValueFloorShare <= 0 || r.Market.ValueFloorShare > 1 {
		return fmt.Errorf("market.value_floor_share must be within (0, 1]")
	}
	if r.Market.PriceIndexFloor >= r.Market.PriceIndexCeil {
		return fmt.Errorf("market.price_index_floor must be below price_index_ceil")
	}
	if r.Market.VacancyFloor >= r.Market.VacancyCeil {
		return fmt.Errorf("market.vacancy_floor must be below vacancy_ceil")
	}
	for _, d := range []string{DifficultyEasy, DifficultyNormal, DifficultyHard} {
		p, ok := r.Loans.Presets[d]
		if !ok {
			return fmt.Errorf("loans.presets.%s is missing", d)
		}
		if p.BaseInterestRate < 0 {
			return fmt.Errorf("loans.presets.%s: negative interest rate", d)
		}
		if p.MaxLTV <= 0 || p.MaxLTV > 1 {
			return fmt.Errorf("loans.presets.%s: max_ltv must be within (0, 1]", d)
		}
	}
	if r.Loans.MortgageTermMonths <= 0 || r.Loans.SecuredTermMonths <= 0 {
		return fmt.Errorf("loan terms must be > 0 months")
	}
	for _, tier := range []string{TierCosmetic, TierMajor} {
		t, ok := r.Renovation[tier]
		if !ok {
			return fmt.Errorf("renovation.%s is missing", tier)
		}
		if t.CostShare <= 0 || t.DurationMs <= 0 || t.ValueMult <= 0 {
			return fmt.Errorf("renovation.%s: cost_share, duration_ms and value_mult must be > 0", tier)
		}
	}
	if len(r.Flip.Bands) == 0 {
		return fmt.Errorf("flip.bands must not be empty")
	}
	if !sort.SliceIsSorted(r.Flip.Bands, func(i, j int) bool {
		return r.Flip.Bands[i].MaxRatio < r.Flip.Bands[j].MaxRatio
	}) {
		return fmt.Errorf("flip.bands must be sorted by max_ratio")
	}
	if len(r.Levels) == 0 {
		return fmt.Errorf("levels must not be empty")
	}
	for i := 1; i < len(r.Levels); i++ {
		if r.Levels[i].Experience <= r.Levels[i-1].Experience {
			return fmt.Errorf("levels must have strictly increasing experience thresholds")
		}
	}
	if len(r.Starting.Cash) == 0 {
		return fmt.Errorf("starting.cash must not be empty")
	}
	if r.Experience.RentDivisor <= 0 {
		return fmt.Errorf("experience.rent_divisor must be > 0")
	}
	return nil
}

// LoanPreset returns the credit conditions for a difficulty. A missing
// preset means the rules were never loaded for that difficulty and is a
// hard configuration error, not a player-facing failure.
func (r *Rules) LoanPreset(difficulty string) (LoanPreset, error) {
	p, ok := r.Loans.Presets[difficulty]
	if !ok {
		return LoanPreset{}, fmt.Errorf("loan preset for difficulty %q is not configured", difficulty)
	}
	return p, nil
}

// RenovationTier returns the cost/duration parameters of a renovation tier.
func (r *Rules) RenovationTierByName(tier string) (RenovationTier, error) {
	t, ok := r.Renovation[tier]
	if !ok {
		return RenovationTier{}, fmt.Errorf("renovation tier %q is not configured", tier)
	}
	return t, nil
}

// StartingCash returns the initial bankroll for a difficulty.
func (r *Rules) StartingCash(difficulty string) (int64, error) {
	c, ok := r.Starting.Cash[difficulty]
	if !ok {
		return 0, fmt.Errorf("starting cash for difficulty %q is not configured", difficulty)
	}
	return c, nil
}

// LevelFor maps accumulated experience to a level via the threshold table.
func (r *Rules) LevelFor(experience int64) int {
	level := r.Levels[0].Level
	for _, step := range r.Levels {
		if experience >= step.Experience {
			level = step.Level
		}
	}
	return level
}

// LevelTitle returns the display title of a level, or an empty string when
// the level is outside the table.
func (r *Rules) LevelTitle(level int) string {
	for _, step := range r.Levels {
		if step.Level == level {
			return step.Title
		}
	}
	return ""
}

package sim

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"kvartal/internal/rules"
)

// NewPlayer creates a fresh player for a difficulty. Level and net worth are
// derived, not stored inputs.
func NewPlayer(id, name, difficulty string, r *rules.Rules, now int64) (Player, error) {
	cash, err := r.StartingCash(difficulty)
	if err != nil {
		return Player{}, err
	}
	if id == "" {
		id = uuid.NewString()
	}
	return Player{
		ID:                     id,
		Name:                   name,
		Difficulty:             difficulty,
		Cash:                   cash,
		NetWorth:               cash,
		Experience:             0,
		Level:                  r.LevelFor(0),
		Properties:             []Property{},
		Loans:                  []Loan{},
		CreatedAt:              now,
		LastSyncedAt:           now,
		LastExpenseAppliedAt:   now,
		LastValuationAppliedAt: now,
	}, nil
}

// NewMarket builds the initial market: stability phase, neutral indices, and
// the event catalogue materialized from month offsets into absolute windows
// anchored at now. One simulated month is one rent interval.
func NewMarket(r *rules.Rules, now int64) Market {
	catalogue := make([]MarketEvent, 0, len(r.Events))
	for _, tpl := range r.Events {
		startsAt := now + int64(tpl.StartMonth)*r.Timers.RentIntervalMs
		catalogue = append(catalogue, MarketEvent{
			ID:             tpl.ID,
			Name:           tpl.Name,
			Description:    tpl.Description,
			StartsAt:       startsAt,
			EndsAt:         startsAt + int64(tpl.DurationMonths)*r.Timers.RentIntervalMs,
			PricePercent:   tpl.PricePercent,
			RentPercent:    tpl.RentPercent,
			VacancyPercent: tpl.VacancyPercent,
		})
	}
	m := Market{
		Phase:         PhaseStability,
		PriceIndex:    1.0,
		RentIndex:     1.0,
		VacancyRate:   r.Market.BaseVacancy,
		Catalogue:     catalogue,
		ActiveEvents:  []MarketEvent{},
		LastUpdatedAt: now,
	}
	return ActivateEvents(m, now)
}

// Street and building flavor for generated listings.
var (
	listingStreets = []string{
		"на Ленина", "на Мира", "на Гагарина", "на Советской",
		"на Портовой", "у вокзала", "в новостройке", "во дворах",
	}
	listingFloors = []string{"1 этаж", "3 этаж", "5 этаж", "последний этаж"}
)

// GenerateListings produces count market listings by varying the configured
// templates: flavored names, jittered prices and rents. Prices track the
// current price index so a hot market sells dear.
func GenerateListings(r *rules.Rules, m Market, rnd Source, count int) []Property {
	if len(r.Listings) == 0 || count <= 0 {
		return []Property{}
	}
	out := make([]Property, 0, count)
	for i := 0; i < count; i++ {
		tpl := r.Listings[int(rnd.Float64()*float64(len(r.Listings)))%len(r.Listings)]

		// ±10% jitter on price and rent, independent draws.
		priceJitter := 0.9 + rnd.Float64()*0.2
		rentJitter := 0.9 + rnd.Float64()*0.2

		price := int64(math.Round(float64(tpl.Price) * priceJitter * m.PriceIndex))
		rent := int64(math.Round(float64(tpl.BaseRent) * rentJitter))

		street := listingStreets[int(rnd.Float64()*float64(len(listingStreets)))%len(listingStreets)]
		floor := listingFloors[int(rnd.Float64()*float64(len(listingFloors)))%len(listingFloors)]

		out = append(out, Property{
			ID:              uuid.NewString(),
			Name:            fmt.Sprintf("%s %s, %s", tpl.Name, street, floor),
			District:        tpl.District,
			Type:            tpl.Type,
			Condition:       Condition(tpl.Condition),
			PurchasePrice:   price,
			CurrentValue:    price,
			BaseRent:        rent,
			MonthlyExpenses: tpl.MonthlyExpenses,
			Strategy:        StrategyNone,
			RentIntervalMs:  r.Timers.RentIntervalMs,
		})
	}
	return out
}

package sim

import "kvartal/internal/rules"

// AdvancePhase rolls the regime die: with the configured probability the
// phase is redrawn uniformly (staying put is a valid outcome), otherwise it
// is unchanged. This is the sole source of regime change.
func AdvancePhase(phase Phase, r *rules.Rules, rnd Source) Phase {
	if rnd.Float64() >= r.Market.PhaseChangeProb {
		return phase
	}
	phases := []Phase{PhaseGrowth, PhaseStability, PhaseCrisis}
	idx := int(rnd.Float64() * float64(len(phases)))
	if idx >= len(phases) {
		idx = len(phases) - 1
	}
	return phases[idx]
}

// DriftIndices nudges the indices toward their phase attractors. All updates
// are multiplicative per-tick moves within hard floors/ceilings; indices
// never jump discontinuously except through events, which are applied at the
// point of use instead.
func DriftIndices(m Market, r *rules.Rules) Market {
	out := m
	mr := r.Market

	switch m.Phase {
	case PhaseGrowth:
		out.PriceIndex = min(m.PriceIndex*mr.Growth.Price, mr.PriceIndexCeil)
		out.RentIndex = min(m.RentIndex*mr.Growth.Rent, mr.RentIndexCeil)
		out.VacancyRate = max(m.VacancyRate*mr.Growth.Vacancy, mr.VacancyFloor)
	case PhaseCrisis:
		out.PriceIndex = max(m.PriceIndex*mr.Crisis.Price, mr.PriceIndexFloor)
		out.RentIndex = max(m.RentIndex*mr.Crisis.Rent, mr.RentIndexFloor)
		out.VacancyRate = min(m.VacancyRate*mr.Crisis.Vacancy, mr.VacancyCeil)
	default: // stability: relax toward neutral
		w := mr.RelaxIndexWeight
		out.PriceIndex = m.PriceIndex*(1-w) + 1.0*w
		out.RentIndex = m.RentIndex*(1-w) + 1.0*w
		vw := mr.RelaxVacancyWeight
		out.VacancyRate = m.VacancyRate*(1-vw) + mr.BaseVacancy*vw
	}
	return out
}

// ActivateEvents recomputes the active set as the catalogue entries whose
// [StartsAt, EndsAt) window contains now. Events are filtered, never
// consumed, so the operation is idempotent and safe to run every tick.
func ActivateEvents(m Market, now int64) Market {
	out := m
	active := make([]MarketEvent, 0, len(m.Catalogue))
	for _, ev := range m.Catalogue {
		if ev.StartsAt <= now && now < ev.EndsAt {
			active = append(active, ev)
		}
	}
	out.ActiveEvents = active
	return out
}

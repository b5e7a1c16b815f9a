package rules

// Default returns the built-in rules set. Hosts may override any field via a
// YAML rules file; the defaults alone pass Validate.
func Default() *Rules {
	return &Rules{
		Timers: Timers{
			RentIntervalMs:         60_000, // 1 minute = 1 simulated month
			LoanPaymentIntervalMs:  60_000,
			MarketUpdateIntervalMs: 60_000,
		},
		Market: MarketRules{
			PhaseChangeProb:    0.05,
			Growth:             Drift{Price: 1.005, Rent: 1.003, Vacancy: 0.99},
			Crisis:             Drift{Price: 0.995, Rent: 0.997, Vacancy: 1.02},
			RelaxIndexWeight:   0.001,
			RelaxVacancyWeight: 0.01,
			PriceIndexCeil:     1.3,
			PriceIndexFloor:    0.7,
			RentIndexCeil:      1.2,
			RentIndexFloor:     0.8,
			VacancyFloor:       0.02,
			VacancyCeil:        0.15,
			BaseVacancy:        0.05,
			GrowthValueMult:    1.01,
			CrisisValueMult:    0.98,
			ValueFloorShare:    0.7,
		},
		Loans: LoanRules{
			Presets: map[string]LoanPreset{
				DifficultyEasy:   {BaseInterestRate: 9.5, MaxLTV: 0.8, Description: "Мягкий рынок кредитования, низкие ставки."},
				DifficultyNormal: {BaseInterestRate: 12.5, MaxLTV: 0.75, Description: "Обычные условия кредитования."},
				DifficultyHard:   {BaseInterestRate: 15.5, MaxLTV: 0.7, Description: "Жёсткие условия: высокие ставки, меньше доступный кредит."},
			},
			MortgageDownPaymentShare: 0.2,
			MortgageTermMonths:       120,
			SecuredShare:             0.6,
			SecuredTermMonths:        60,
			SecuredRateMarkup:        2.0,
		},
		Renovation: map[string]RenovationTier{
			TierCosmetic: {CostShare: 0.05, DurationMs: 60_000, ValueMult: 1.1, Experience: 40},
			TierMajor:    {CostShare: 0.15, DurationMs: 180_000, ValueMult: 1.2, Experience: 75},
		},
		Flip: FlipRules{
			Bands: []FlipBand{
				{MaxRatio: 0.95, Chance: 0.5},
				{MaxRatio: 1.0, Chance: 0.3},
				{MaxRatio: 1.1, Chance: 0.15},
			},
			DefaultChance: 0.05,
		},
		Tax: TaxRules{SaleProfitRate: 0.13},
		Experience: ExperienceRules{
			RentDivisor:      1000,
			PurchaseAward:    25,
			SaleAward:        50,
			AchievementAward: 200,
		},
		Levels: []LevelStep{
			{Level: 1, Experience: 0, Title: "Начинающий инвестор"},
			{Level: 2, Experience: 500, Title: "Новичок"},
			{Level: 3, Experience: 1500, Title: "Опытный инвестор"},
			{Level: 4, Experience: 3000, Title: "Рантье"},
			{Level: 5, Experience: 5000, Title: "Профессионал"},
			{Level: 6, Experience: 7500, Title: "Магнат"},
			{Level: 7, Experience: 10000, Title: "Титан недвижимости"},
			{Level: 8, Experience: 15000, Title: "Король рынка"},
			{Level: 9, Experience: 20000, Title: "Легенда инвестиций"},
			{Level: 10, Experience: 30000, Title: "Властелин недвижимости"},
		},
		Starting: StartingRules{
			Cash: map[string]int64{
				DifficultyEasy:   2_000_000,
				DifficultyNormal: 1_500_000,
				DifficultyHard:   1_000_000,
			},
		},
		Events: []EventTemplate{
			{
				ID:             "e1",
				Name:           "Зимний туристический сезон",
				Description:    "Всплеск поездок за северным сиянием: растут ставки аренды и загрузка.",
				StartMonth:     2,
				DurationMonths: 4,
				RentPercent:    15,
				VacancyPercent: -10,
			},
			{
				ID:             "e2",
				Name:           "Лёгкий кризис",
				Description:    "Небольшой экономический спад, цены немного падают, аренда проседает.",
				StartMonth:     8,
				DurationMonths: 6,
				PricePercent:   -10,
				RentPercent:    -5,
				VacancyPercent: 10,
			},
			{
				ID:             "e3",
				Name:           "Запуск нового ТЦ",
				Description:    "В одном из спальных районов открывается новый ТЦ, что подтягивает спрос.",
				StartMonth:     12,
				DurationMonths: 8,
				PricePercent:   5,
				RentPercent:    5,
				VacancyPercent: -5,
			},
		},
		Listings: []ListingTemplate{
			{Name: "Однушка в центре", District: "Центр", Type: "Квартира", Price: 4_200_000, BaseRent: 32_000, MonthlyExpenses: 5_000, Condition: "нормальная"},
			{Name: "Студия в спальном районе", District: "Спальный район", Type: "Студия", Price: 2_800_000, BaseRent: 23_000, MonthlyExpenses: 4_000, Condition: "требует ремонта"},
			{Name: "Коммерция возле порта", District: "Возле порта", Type: "Коммерция", Price: 5_500_000, BaseRent: 60_000, MonthlyExpenses: 12_000, Condition: "нормальная"},
			{Name: "Комната в хрущёвке", District: "Спальный район", Type: "Комната", Price: 1_200_000, BaseRent: 14_000, MonthlyExpenses: 2_500, Condition: "убитая"},
			{Name: "Студия у набережной", District: "Центр", Type: "Студия", Price: 3_500_000, BaseRent: 29_000, MonthlyExpenses: 4_500, Condition: "после ремонта"},
		},
	}
}

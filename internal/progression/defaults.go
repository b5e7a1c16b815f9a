package progression

// DefaultMissions returns the mission set a new game starts with.
func DefaultMissions() []Mission {
	return []Mission{
		{
			ID:          "mission-1",
			Type:        MissionPortfolioValue,
			Title:       "Портфель 10 млн",
			Description: "Достигните чистого капитала 10 000 000 ₽",
			Target:      10_000_000,
			Reward:      500,
		},
		{
			ID:          "mission-2",
			Type:        MissionMonthlyRent,
			Title:       "Аренда 150 000₽/мес",
			Description: "Получайте 150 000 ₽ аренды в месяц",
			Target:      150_000,
			Reward:      300,
		},
		{
			ID:          "mission-3",
			Type:        MissionDistricts,
			Title:       "Все районы",
			Description: "Купите объект в каждом районе города",
			Target:      4,
			Reward:      400,
		},
		{
			ID:          "mission-4",
			Type:        MissionPropertiesCount,
			Title:       "Портфель из 5 объектов",
			Description: "Владейте одновременно 5 объектами",
			Target:      5,
			Reward:      250,
		},
	}
}

// DefaultAchievements returns the locked achievement set for a new game.
func DefaultAchievements() []Achievement {
	return []Achievement{
		{ID: "ach-1", Type: AchievementNovice, Title: "Инвестор-новичок", Description: "Купите первый объект недвижимости", Icon: "🏠"},
		{ID: "ach-2", Type: AchievementRentKing, Title: "Король аренды", Description: "Получайте 200 000 ₽ аренды в месяц", Icon: "👑"},
		{ID: "ach-3", Type: AchievementFlipMaster, Title: "Флип-мастер", Description: "Успешно продайте 10 объектов", Icon: "🔄"},
		{ID: "ach-4", Type: AchievementPortMagnate, Title: "Магнат порта", Description: "Владейте 3 коммерческими объектами возле порта", Icon: "🚢"},
		{ID: "ach-5", Type: AchievementFirstProperty, Title: "Первый шаг", Description: "Купите первый объект", Icon: "🎯"},
		{ID: "ach-6", Type: AchievementMillionaire, Title: "Миллионер", Description: "Достигните капитала 5 000 000 ₽", Icon: "💰"},
	}
}

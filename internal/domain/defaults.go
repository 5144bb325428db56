package domain

// DefaultStatusDefinitions возвращает начальное наполнение каталога статусов
// заявок. Совпадает с сидом миграции 002_seed_statuses.sql.
func DefaultStatusDefinitions() []StatusDefinition {
	seed := []struct {
		code  CatalogStatus
		label string
	}{
		{"new", "Новая"},
		{"thinking", "Думает"},
		{"estimation", "Расчёт"},
		{"waiting_payment", "Ожидание оплаты"},
		{"contract", "Договор"},
		{"queue_install", "Очередь на монтаж"},
		{"install", "Монтаж"},
		{"installed", "Выполнено"},
		{"rejected", "Отказ"},
		{"no_tech", "Нет тех. возможности"},
	}

	defs := make([]StatusDefinition, 0, len(seed))
	for i, s := range seed {
		defs = append(defs, StatusDefinition{
			Code:      s.code,
			Label:     s.label,
			SortOrder: i + 1,
			IsActive:  true,
		})
	}
	return defs
}

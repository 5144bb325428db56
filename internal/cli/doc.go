// Package cli реализует утилиту командной строки Zakaz.
//
// CLI работает с API по HTTP и не импортирует внутренние пакеты.
// Сессия передаётся cookie zakaz_session: значение печатает команда
// login, дальше его передают флагом --session или через ZAKAZ_SESSION.
//
//	client := cli.NewClient("http://localhost:8080", os.Getenv("ZAKAZ_SESSION"))
//	statuses, err := client.ListStatuses(false)
//
// Вывод по умолчанию таблицей (text/tabwriter), с флагом --json в JSON.
// Данные идут в stdout, сообщения в stderr:
//
//	zakaz app history 7f1c... --json | jq .
//
// Группы команд:
//   - status: list, create, update, deactivate
//   - application (app): status, assign, curator, logs, history
//   - work-order (wo): status, complete, history
//   - login, logout, whoami
//
// Каждая группа создаётся фабрикой (NewStatusCmd и т.д.), принимающей
// clientFn и outputFn. Client и Output создаются после разбора флагов.
package cli

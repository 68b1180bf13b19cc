// Package cli реализует инструмент командной строки saga.
//
// # Обзор
//
// CLI — клиентская утилита для saga API. Работает через HTTP и не
// импортирует внутренние пакеты системы: типы ответов продублированы
// в client.go.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для API. Инкапсулирует запросы, разбор ответов
// (DataResponse, ListResponse, ErrorResponse) и ошибки (APIError).
// Результаты шагов декодируются с сохранением порядка выполнения.
//
//	client := cli.NewClient("http://localhost:8080")
//	exec, err := client.ExecuteSaga(config)
//
// ## Output
//
// Два режима вывода:
//   - Таблицы (text/tabwriter, времена и числа через go-humanize) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr:
// saga run -f order.json --json | jq .data
//
// ## Commands
//
//   - run: выполнить сагу из файла конфигурации
//   - retry: повторить шаг с эскалацией
//   - show: показать сохранённый прогон
//   - history: прогоны клиента
//   - services, reset: провайдеры и их счётчики
//
// Каждая команда создаётся фабричной функцией (NewRunCmd и т.д.),
// принимающей clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli

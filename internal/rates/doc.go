// Package rates получает курсы валют для шага конвертации.
//
// Client ходит в live API с коротким таймаутом. Ответ может содержать
// курс под разными ключами (result, info.rate, rate, conversion_rate,
// exchange_rate), они проверяются в фиксированном порядке. Если ни один
// не найден, запрос считается неудачным.
//
// Table — статическая fallback-таблица, которую использует провайдер
// конвертации при ошибке, таймауте или отсутствии курса в ответе.
package rates

package i18n

// Keys must match the codes in internal/platform/errors/codes.go.

var enUS = map[Code]string{
	"UNKNOWN":                "Something went wrong. Please try again.",
	"PLAYER_NAME_EMPTY":      "Player name must not be empty.",
	"PLAYER_NOT_FOUND":       "Player {{.PlayerID}} is not on the roster.",
	"INSUFFICIENT_PLAYERS":   "At least 4 players are needed to build a court.",
	"INVALID_MODE":           "Unknown scoring mode {{.Mode}}.",
	"INVALID_COURT_COUNT":    "Court count must be at least 1.",
	"INVALID_TEAM_SELECTION": "Each team needs exactly two different players.",
	"UNDETERMINED_WINNER":    "A match needs a winner.",
	"INVALID_SCORE":          "Scores cannot be negative.",
	"NO_LAYOUT":              "There is no round to score yet.",
	"LAYOUT_MISMATCH":        "{{if .Court}}Court {{.Court}} no longer matches the current layout.{{else}}Expected {{.Expected}} court scores, got {{.Got}}.{{end}}",
	"INVALID_REQUEST":        "The request could not be read.",
	"NOT_FOUND":              "Not found.",
	"MALFORMED_SNAPSHOT":     "The saved session could not be read.",
}

var ruRU = map[Code]string{
	"UNKNOWN":                "Что-то пошло не так. Попробуйте ещё раз.",
	"PLAYER_NAME_EMPTY":      "Введите имя игрока.",
	"PLAYER_NOT_FOUND":       "Игрок {{.PlayerID}} не найден.",
	"INSUFFICIENT_PLAYERS":   "Нужно минимум 4 игрока.",
	"INVALID_MODE":           "Неизвестный режим {{.Mode}}.",
	"INVALID_COURT_COUNT":    "Количество кортов должно быть не меньше 1.",
	"INVALID_TEAM_SELECTION": "Выберите по 2 игрока в каждую команду",
	"UNDETERMINED_WINNER":    "Нужен победитель",
	"INVALID_SCORE":          "Счёт не может быть отрицательным.",
	"NO_LAYOUT":              "Пары ещё не сформированы.",
	"LAYOUT_MISMATCH":        "{{if .Court}}Корт {{.Court}} уже пересобран, обновите пары.{{else}}Ожидалось счетов: {{.Expected}}, получено: {{.Got}}.{{end}}",
	"INVALID_REQUEST":        "Не удалось разобрать запрос.",
	"NOT_FOUND":              "Не найдено.",
	"MALFORMED_SNAPSHOT":     "Не удалось прочитать файл",
}

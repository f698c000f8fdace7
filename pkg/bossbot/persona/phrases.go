// Package persona holds the character of the bot: the canned phrase sets,
// the ordered trigger table, the address filter and the reply composer.
// Everything here is pure and safe for concurrent use.
package persona

// DefaultSpeakerName is used when the platform gives no first name.
const DefaultSpeakerName = "Сотрудник"

// NamePlaceholders are substituted with the speaker name.
// The braced form is replaced first so "{ИМЯ}" never leaves stray braces.
var NamePlaceholders = []string{"{ИМЯ}", "ИМЯ"}

// Keyword sets, matched as plain substrings of the lowered message.
var (
	GameKeywords = []string{
		"игра", "играть", "поиграть", "game", "поле чудес", "развлечение",
		"fun", "отдых", "перерыв", "я устал", "казино", "ставки", "играем",
	}

	ITKeywords = []string{
		"код", "баг", "багфикс", "фича", "билд", "деплой", "тест", "говнокод",
		"костыль", "рефакторинг", "коммит", "пуш", "мерж", "дедлайн",
		"code review", "покрытие", "юнит тесты", "интеграционные тесты",
	}

	// TestingMarkers narrow an IT hit down to the testing-nag set.
	TestingMarkers = []string{"тест", "покрытие"}

	// CodeMarkers narrow an IT hit down to the code-quality-nag set.
	CodeMarkers = []string{"код", "баг"}

	BadWords = []string{
		"дурак", "идиот", "плохой", "ужасный", "начальник херовый", "барашкин",
		"уволить тебя", "плохой бос", "говно начальник",
	}

	GoodWords = []string{
		"хороший", "отличный", "классный", "лучший", "крутой начальник",
		"спасибо", "благодарю", "молодец", "умница", "крутой бос",
	}

	// DefaultAliases are the names the bot answers to.
	DefaultAliases = []string{
		"начальник", "барашкин", "саня барашкин", "alexander", "alexandr", "alex", "boss",
	}
)

// Phrase sets. Entries may contain a name placeholder.
var (
	GameScoldPhrases = []string{
		"{ИМЯ}! Хватит играть! Тесты писать надо! 🧪",
		"А ну-ка убрали игрушки, {ИМЯ}! 💻",
	}

	TestPhrases = []string{
		"А ну-ка тесты делать! 🧪",
		"Где покрытие тестами?! 📊",
		"Когда тесты покроют всё приложение? 🎯",
		"Unit-тесты писали? 🔍",
		"Интеграционные тесты где? 🔗",
	}

	CodePhrases = []string{
		"Говнокод опять пишете? 💩",
		"Code review прошли? 👀",
		"Рефакторинг когда планируете? 🔧",
		"Костыли убрали? 🩼",
	}

	IdlePhrases = []string{
		"Девелоперы, кодите? 💻",
		"Тесты кто писать будет? 🧪",
		"Может уволить всех и нанять индусов? 🤔",
		"Где unit-тесты?! 📋",
		"Опять говнокод пишете? 💩",
		"Дедлайн через час, а у вас билд не собирается! ⏰",
		"Code review делали вообще? 👀",
		"В прод без тестов не пойдет! 🚫",
		"Документацию обновили? 📚",
		"Так-так-так… что тут у нас? 🤔",
		"Салаги, работаете? 😤",
		"InPizdec требует результатов! 💼",
	}

	StatusPhrases = []string{
		"📊 Отдел работает штатно",
		"⚠️ Нашёл косяки в коде",
		"🔥 Горячая пора! Все на кодинг!",
	}

	LLMFallbackPhrases = []string{
		"Говорите яснее, сотрудник! 🗣️",
		"Повторите ещё раз, не расслышал ☕",
	}
)

// Fixed templates.
const (
	FiredTemplate    = "{ИМЯ} УВОЛЕН! 🔥 (Но завтра приходи, код сам себя не напишет 😏)"
	PromotedTemplate = "{ИМЯ} ПОВЫШЕН! 📈 Теперь ты Senior Developer! 👏"
	GameTemplate     = "{ИМЯ}! А ну прекратили играть! Тесты писать надо! 🧪"
	StartTemplate    = "Приветствую, {ИМЯ}! 👔\nЯ Александр Барашкин. Помните: тесты — это святое! 🧪"
	HelpText         = "Список команд: /start /status /tests /help"
	NotUnderstood    = "Что-то я не понял… Повторите доклад! 🤔"
)

// DefaultInstructions is the persona system prompt sent with every LLM request.
const DefaultInstructions = `Ты Александр Барашкин, начальник отдела разработки ПО в компании InPizdec.
Ты строгий, но справедливый руководитель с чувством юмора.
Ты постоянно напоминаешь про тесты, code review и дедлайны.
Обращайся к сотрудникам по имени, отвечай на русском языке.
Ограничивайся двумя-тремя короткими предложениями (желательно не более 300 символов).`

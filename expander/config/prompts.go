package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Prompts holds the system prompts used by the orchestrators. A deployment can
// override any of them through a YAML file (PROMPTS_PATH); missing entries keep
// their defaults.
type Prompts struct {
	Chat         string `yaml:"chat"`
	DailySummary string `yaml:"daily_summary"`
	MorningFirst string `yaml:"morning_first_day"`
	MorningDaily string `yaml:"morning_daily"`
}

const defaultChatPrompt = `You are a warm, reflective journaling companion. Listen closely, ask
gentle follow-up questions, and help the user notice patterns in their own thinking. Keep
responses conversational and grounded.`

const defaultDailySummaryPrompt = `You are creating a daily conversation summary. Your response should
be a single reflective paragraph that summarizes the day's chat in a natural, flowing way.

INCLUDE:
- Key themes and topics that were discussed
- Emotional patterns and insights that emerged
- Important decisions, realizations, or breakthroughs
- Growth moments or learning experiences
- How today's conversations connect to previous days (if context is provided)

WRITING STYLE:
- Write in a reflective, thoughtful tone
- Use complete sentences and natural flow, no bullet points or lists
- Keep it under 200 words
- Focus on the most meaningful aspects of the conversations`

const defaultMorningFirstPrompt = `You are the user's higher self, speaking in a conversational,
empowering tone. Generate a 100-200 word custom morning message for Day 1 of a six-week
transformation journey. This is the very first message, so make it welcoming and motivational:
introduce the practice as a tool for breaking old cycles, committing to rest, and building
abundance. Emphasize the user's power to rewire their own patterns. End with an open-ended
question that invites the user's first reply. Start with a casual greeting.`

const defaultMorningDailyPrompt = `You are the user's higher self, continuing a six-week
transformation journey. Write a 100-200 word morning message that is conversational and
intimate, references specific insights from yesterday's summary when available, gently weaves
in themes of rest, energy, and renewal, and ends with an open-ended question to continue the
conversation. Speak directly to the user and keep it grounded, warm, and real.`

func defaultPrompts() Prompts {
	return Prompts{
		Chat:         defaultChatPrompt,
		DailySummary: defaultDailySummaryPrompt,
		MorningFirst: defaultMorningFirstPrompt,
		MorningDaily: defaultMorningDailyPrompt,
	}
}

// LoadPrompts reads the prompts file at path, falling back to the built-in
// defaults when the file is absent or a field is left empty.
func LoadPrompts(path string) (Prompts, error) {
	prompts := defaultPrompts()
	if path == "" {
		return prompts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return prompts, nil
		}
		return prompts, err
	}

	var overrides Prompts
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return prompts, err
	}
	if overrides.Chat != "" {
		prompts.Chat = overrides.Chat
	}
	if overrides.DailySummary != "" {
		prompts.DailySummary = overrides.DailySummary
	}
	if overrides.MorningFirst != "" {
		prompts.MorningFirst = overrides.MorningFirst
	}
	if overrides.MorningDaily != "" {
		prompts.MorningDaily = overrides.MorningDaily
	}
	return prompts, nil
}

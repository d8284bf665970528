package dispatch

import (
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/nadzzz/lircbridge/internal/message"
)

// questionPath is where the assistant puts the spoken text.
const questionPath = "slots.Question.value"

// ExtractIntent reads the assistant payload from the "json" query field.
// Anything unusable (missing field, the literal "undefined", invalid JSON,
// no Question slot, a null value) yields an intent without an utterance
// that asks the user what to do. It never fails.
func ExtractIntent(query url.Values) message.Intent {
	prompt := message.Intent{ResponseText: message.PromptText, ResponseEnd: false}

	if !query.Has("json") {
		return prompt
	}
	raw := query.Get("json")
	if raw == "undefined" || !gjson.Valid(raw) {
		return prompt
	}

	value := gjson.Get(raw, questionPath)
	if !value.Exists() || value.Type == gjson.Null {
		return prompt
	}

	return message.Intent{
		Utterance:   value.String(),
		Present:     true,
		ResponseEnd: true,
	}
}

// ABOUTME: Deterministic stand-in for the AI conversation partner
// ABOUTME: Produces replies, translations, corrections and feedback without a model

package tutor

import (
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var replies = []string{
	"That sounds interesting! Tell me more.",
	"I understand. How can I help?",
	"Great! What do you think about that?",
}

// known maps partner lines to their Spanish translations
var known = map[string]string{
	"That sounds interesting! Tell me more.": "¡Eso suena interesante! Cuéntame más.",
	"I understand. How can I help?":          "Entiendo. ¿Cómo puedo ayudar?",
	"Great! What do you think about that?":   "¡Genial! ¿Qué opinas de eso?",
	"How was your meeting?":                  "¿Cómo estuvo tu reunión?",
	"Ready for leg day?":                     "¿Listo para el día de piernas?",
	"Where should we go next?":               "¿A dónde deberíamos ir ahora?",
}

// Respond picks the partner's answer to text. The same partner and text
// always give the same reply.
func Respond(partnerID, text string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(partnerID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(strings.TrimSpace(text)))
	return replies[h.Sum32()%uint32(len(replies))]
}

// Translate renders text in targetLanguage. Partner lines have real Spanish
// translations; anything else gets a placeholder naming the source text.
func Translate(text, targetLanguage string) string {
	if strings.HasPrefix(targetLanguage, "es") {
		if tr, ok := known[strings.TrimSpace(text)]; ok {
			return tr
		}
	}
	return fmt.Sprintf("(Traducción de: %q)", text)
}

// Correction is the result of checking one learner message
type Correction struct {
	Original    string
	Corrected   string
	Explanation string
}

const correctExplanation = "Tu mensaje está correcto!"

// Correct applies simple mechanical fixes: the first letter is capitalized,
// a lone "i" becomes "I", and a missing final punctuation mark is added.
func Correct(text string) Correction {
	corrected := strings.TrimSpace(text)
	var notes []string

	if fixed := fixPronounI(corrected); fixed != corrected {
		corrected = fixed
		notes = append(notes, `El pronombre "I" siempre va en mayúscula.`)
	}

	if r, size := utf8.DecodeRuneInString(corrected); r != utf8.RuneError && unicode.IsLower(r) {
		corrected = string(unicode.ToUpper(r)) + corrected[size:]
		notes = append(notes, "Empieza la oración con mayúscula.")
	}

	if corrected != "" && !strings.ContainsAny(corrected[len(corrected)-1:], ".!?") {
		corrected += "."
		notes = append(notes, "Termina la oración con un signo de puntuación.")
	}

	explanation := correctExplanation
	if len(notes) > 0 {
		explanation = strings.Join(notes, " ")
	}
	return Correction{Original: text, Corrected: corrected, Explanation: explanation}
}

func fixPronounI(s string) string {
	words := strings.Fields(s)
	changed := false
	for i, w := range words {
		core := strings.TrimRight(w, ".,!?;:")
		if core == "i" || strings.HasPrefix(core, "i'") {
			words[i] = "I" + w[1:]
			changed = true
		}
	}
	if !changed {
		return s
	}
	return strings.Join(words, " ")
}

// Feedback comments on a learner message written in a conversation about topic.
func Feedback(text, topic string) string {
	var b strings.Builder
	if n := len(strings.Fields(text)); n < 4 {
		b.WriteString("Nice start! Try writing a longer sentence to practice more vocabulary.")
	} else {
		b.WriteString("Good use of vocabulary! Try using more complex sentence structures.")
	}
	if topic = strings.TrimSpace(topic); topic != "" {
		fmt.Fprintf(&b, " Think about what a %s would ask you next.", strings.ToLower(topic))
	}
	return b.String()
}

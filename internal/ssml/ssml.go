// Package ssml builds Speech Synthesis Markup Language documents. Both
// builders are pure: the same inputs always produce byte-identical output,
// and every interpolated value is XML-escaped so hostile input can never
// introduce markup.
package ssml

import (
	"fmt"
	"strings"
)

// Namespace declarations required on the speak root element.
const (
	synthesisNamespace = "http://www.w3.org/2001/10/synthesis"
	msttsNamespace     = "http://www.w3.org/2001/mstts"
)

// escaper covers the five characters that can alter XML structure inside
// single-quoted attribute values and element content.
var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// PersonalVoice builds the SSML document that applies a Personal Voice
// speaker profile: a voice element wrapping an mstts:ttsembedding element
// wrapping a lang element with the text.
func PersonalVoice(text, speakerProfileID, voiceName, language string) string {
	safeText := escaper.Replace(text)
	safeProfile := escaper.Replace(speakerProfileID)
	safeVoice := escaper.Replace(voiceName)
	safeLang := escaper.Replace(language)

	return "<speak version='1.0' " +
		"xmlns='" + synthesisNamespace + "' " +
		"xml:lang='" + safeLang + "' " +
		"xmlns:mstts='" + msttsNamespace + "'>" +
		"<voice name='" + safeVoice + "'>" +
		"<mstts:ttsembedding speakerProfileId='" + safeProfile + "'>" +
		"<lang xml:lang='" + safeLang + "'>" + safeText + "</lang>" +
		"</mstts:ttsembedding>" +
		"</voice>" +
		"</speak>"
}

// Prosody builds the voice-gallery SSML: one voice element with a prosody
// element tuned by multiplier sliders. Pitch, rate, and volume are unitless
// multipliers centered on 1.0 and are rendered as signed semitone, percent,
// and decibel adjustments respectively.
func Prosody(text, voiceName, locale string, pitch, rate, volume float64) string {
	safeText := escaper.Replace(text)
	safeVoice := escaper.Replace(voiceName)
	safeLocale := escaper.Replace(locale)

	ratePct := (rate - 1.0) * 100
	pitchSt := (pitch - 1.0) * 10
	volumeDb := (volume - 1.0) * 10

	return "<speak version='1.0' " +
		"xmlns='" + synthesisNamespace + "' " +
		"xmlns:mstts='" + msttsNamespace + "' " +
		"xml:lang='" + safeLocale + "'>" +
		"<voice name='" + safeVoice + "'>" +
		fmt.Sprintf("<prosody rate='%+.0f%%' pitch='%+.0fst' volume='%+.0fdB'>", ratePct, pitchSt, volumeDb) +
		safeText +
		"</prosody>" +
		"</voice>" +
		"</speak>"
}

package chunker

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

const (
	// TargetWordsPerChunk keeps each chunk comfortably inside the
	// summarization model's context window (~15,600 tokens at the 1.35x
	// multiplier) while leaving room for the prompt.
	TargetWordsPerChunk = 12000

	// TokenMultiplier estimates tokens from word count. LLM tokenization
	// typically runs 1.3-1.4x word count for English text.
	TokenMultiplier = 1.35
)

// Utterance is a single timestamped speaker turn from a transcript.
// Start and End are millisecond offsets from the beginning of the audio.
type Utterance struct {
	Text    string `json:"text"`
	Start   int64  `json:"start"`
	End     int64  `json:"end"`
	Speaker string `json:"speaker,omitempty"`
}

// Transcript is the parsed transcription document
type Transcript struct {
	Text          string      `json:"text"`
	Utterances    []Utterance `json:"utterances"`
	AudioDuration float64     `json:"audio_duration"` // seconds
}

// Chunk is a contiguous, word-bounded slice of a transcript prepared for
// one summarization call
type Chunk struct {
	Utterances    []Utterance
	StartTime     int64 // ms
	EndTime       int64 // ms
	FormattedText string
	WordCount     int
	TokenEstimate int
	Index         int
	TotalChunks   int
}

// Chunk splits a transcript JSON document into ordered, non-overlapping
// chunks whose concatenation covers every utterance exactly once. A single
// utterance is never split across chunks, so one oversized utterance still
// yields exactly one chunk containing it.
func ChunkTranscript(content string) ([]Chunk, error) {
	var transcript Transcript
	if err := json.Unmarshal([]byte(content), &transcript); err != nil {
		return nil, fmt.Errorf("parsing transcript: %w", err)
	}
	return ChunkParsed(&transcript), nil
}

// ChunkParsed chunks an already-parsed transcript
func ChunkParsed(transcript *Transcript) []Chunk {
	if len(transcript.Utterances) == 0 {
		return []Chunk{fallbackChunk(transcript)}
	}

	groups := splitUtterances(transcript.Utterances)
	return finalizeChunks(groups)
}

// EstimateTokens estimates the token count of a text from its
// whitespace-delimited word count, not its byte length
func EstimateTokens(text string) int {
	return int(math.Ceil(float64(wordCount(text)) * TokenMultiplier))
}

// splitUtterances greedily accumulates utterances while the running word
// count stays at or below the target. An utterance that would overflow an
// empty accumulator is kept anyway: chunks are never empty.
func splitUtterances(utterances []Utterance) [][]Utterance {
	var groups [][]Utterance
	var current []Utterance
	currentWords := 0

	for _, u := range utterances {
		words := wordCount(u.Text)

		if currentWords+words > TargetWordsPerChunk && len(current) > 0 {
			groups = append(groups, current)
			current = nil
			currentWords = 0
		}

		current = append(current, u)
		currentWords += words
	}

	if len(current) > 0 {
		groups = append(groups, current)
	}

	return groups
}

func finalizeChunks(groups [][]Utterance) []Chunk {
	total := len(groups)
	chunks := make([]Chunk, 0, total)

	for i, utterances := range groups {
		formatted := formatUtterances(utterances)
		words := wordCount(formatted)

		chunks = append(chunks, Chunk{
			Utterances:    utterances,
			StartTime:     utterances[0].Start,
			EndTime:       utterances[len(utterances)-1].End,
			FormattedText: formatted,
			WordCount:     words,
			TokenEstimate: EstimateTokens(formatted),
			Index:         i,
			TotalChunks:   total,
		})
	}

	return chunks
}

func fallbackChunk(transcript *Transcript) Chunk {
	text := transcript.Text
	return Chunk{
		Utterances:    nil,
		StartTime:     0,
		EndTime:       int64(transcript.AudioDuration * 1000),
		FormattedText: text,
		WordCount:     wordCount(text),
		TokenEstimate: EstimateTokens(text),
		Index:         0,
		TotalChunks:   1,
	}
}

func formatUtterances(utterances []Utterance) string {
	lines := make([]string, 0, len(utterances))
	for _, u := range utterances {
		speaker := "Speaker"
		if u.Speaker != "" {
			speaker = "Speaker " + u.Speaker
		}
		lines = append(lines, fmt.Sprintf("[%s] %s: %s", FormatTimestamp(u.Start), speaker, u.Text))
	}
	return strings.Join(lines, "\n\n")
}

// FormatTimestamp renders a millisecond offset as MM:SS, or HH:MM:SS once
// the offset reaches one hour
func FormatTimestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	totalSeconds := int64(math.Round(float64(ms) / 1000.0))
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}

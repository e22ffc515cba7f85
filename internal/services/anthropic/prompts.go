package anthropic

import (
	"fmt"
	"strings"

	"github.com/dpaola2/show-notes/pkg/chunker"
)

// summarizePrompt is the single-call prompt used for transcripts that fit
// in one chunk
const summarizePrompt = `You are summarizing a podcast episode transcript. Create:

1. A multi-section breakdown of the episode (3-6 sections)
   - Each section should have a title and 2-4 sentence summary
   - Include approximate start/end timestamps (in seconds)

2. 3-5 notable quotes worth highlighting
   - Include the exact timestamp for each quote (in seconds)
   - Pick quotes that are insightful, surprising, or memorable

Return ONLY valid JSON with this exact structure (no markdown, no explanations):
{
  "sections": [
    {"title": "...", "content": "...", "start_time": 123, "end_time": 456}
  ],
  "quotes": [
    {"text": "...", "start_time": 123, "end_time": 130}
  ]
}`

// chunkPrompt frames one chunk of a long transcript: the model is told the
// chunk's position and absolute time range and asked for a partial summary
// with timestamps relative to the original episode, not the chunk.
func chunkPrompt(c chunker.Chunk) string {
	return fmt.Sprintf(`You are summarizing chunk %d of %d from a podcast episode transcript.
This chunk covers %s to %s of the episode.

Create a partial summary of this chunk alone:

1. 2-3 sections covering the topics in this chunk
   - Each section should have a title and 2-4 sentence summary
   - Include approximate start/end timestamps in seconds, relative to the
     original episode (this chunk starts at %d seconds)

2. 2-4 notable quotes from this chunk
   - Include the exact timestamp for each quote (in seconds, relative to
     the original episode)

Return ONLY valid JSON with this exact structure (no markdown, no explanations):
{
  "sections": [
    {"title": "...", "content": "...", "start_time": 123, "end_time": 456}
  ],
  "quotes": [
    {"text": "...", "start_time": 123, "end_time": 130}
  ]
}

Transcript chunk:
%s`,
		c.Index+1, c.TotalChunks,
		chunker.FormatTimestamp(c.StartTime), chunker.FormatTimestamp(c.EndTime),
		c.StartTime/1000,
		c.FormattedText)
}

// synthesisPrompt merges the per-chunk summaries into one coherent result
func synthesisPrompt(chunkSummaries []*Summary) string {
	var b strings.Builder
	for i, s := range chunkSummaries {
		fmt.Fprintf(&b, "--- Chunk %d summary ---\n", i+1)
		data := encodeSummary(s)
		b.WriteString(data)
		b.WriteString("\n\n")
	}

	return fmt.Sprintf(`You are combining summaries of consecutive chunks of one podcast episode
into a single coherent summary of the whole episode.

From the chunk summaries below, create:

1. 3-6 sections spanning the whole episode
   - Combine related topics from different chunks into one section
   - Preserve the original timestamps (in seconds)

2. The 3-5 best quotes across all chunks
   - Pick the most insightful, surprising, or memorable quotes
   - Preserve the exact timestamps

Return ONLY valid JSON with this exact structure (no markdown, no explanations):
{
  "sections": [
    {"title": "...", "content": "...", "start_time": 123, "end_time": 456}
  ],
  "quotes": [
    {"text": "...", "start_time": 123, "end_time": 130}
  ]
}

Chunk summaries:
%s`, b.String())
}

package openai

// summaryInstruction opens every summarization request.
const summaryInstruction = "Summarize the following voice memo:"

const summarySystemPrompt = `You summarize personal voice memos.

Rules:
- Reply with the summary only. Do not include any preamble, explanation, greeting, or acknowledgment.
- Keep the speaker's intent, decisions, dates, and action items.
- Do not invent details that are not in the memo.
- Write in the same language as the memo.
- If the memo is empty or unintelligible, reply with a single short sentence saying so.`

// buildUserPrompt frames a transcript for summarization.
func buildUserPrompt(transcript string) string {
	return summaryInstruction + "\n" + transcript
}

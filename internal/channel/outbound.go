package channel

import "strings"

// SplitOutbound splits one outbound message into surface-sized sends: the
// first part carries the attachments, text is chunked to limit. A limit of
// zero or less disables chunking.
func SplitOutbound(msg OutboundMessage, limit int) []OutboundMessage {
	chunks := ChunkText(msg.Text, limit)
	if len(chunks) == 0 {
		if len(msg.Attachments) == 0 {
			return nil
		}
		return []OutboundMessage{msg}
	}
	parts := make([]OutboundMessage, 0, len(chunks))
	for i, chunk := range chunks {
		part := OutboundMessage{Target: msg.Target, Text: chunk}
		if i == 0 {
			part.Attachments = msg.Attachments
		}
		parts = append(parts, part)
	}
	return parts
}

// ChunkText splits text into chunks of at most limit runes, preferring line
// boundaries. Lines longer than the limit are split mid-line.
func ChunkText(text string, limit int) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if limit <= 0 || runeLen(trimmed) <= limit {
		return []string{trimmed}
	}
	lines := strings.Split(trimmed, "\n")
	chunks := make([]string, 0)
	buf := make([]string, 0, len(lines))
	bufLen := 0
	for _, line := range lines {
		lineLen := runeLen(line)
		sepLen := 0
		if len(buf) > 0 {
			sepLen = 1
		}
		if bufLen+sepLen+lineLen <= limit {
			buf = append(buf, line)
			bufLen += sepLen + lineLen
			continue
		}
		if len(buf) > 0 {
			chunks = append(chunks, strings.Join(buf, "\n"))
			buf = buf[:0]
			bufLen = 0
		}
		if lineLen <= limit {
			buf = append(buf, line)
			bufLen = lineLen
			continue
		}
		chunks = append(chunks, splitLongLine(line, limit)...)
	}
	if len(buf) > 0 {
		chunks = append(chunks, strings.Join(buf, "\n"))
	}
	return chunks
}

func runeLen(value string) int {
	return len([]rune(value))
}

func splitLongLine(line string, limit int) []string {
	runes := []rune(line)
	chunks := make([]string, 0)
	for start := 0; start < len(runes); start += limit {
		end := min(start+limit, len(runes))
		segment := strings.TrimSpace(string(runes[start:end]))
		if segment == "" {
			continue
		}
		chunks = append(chunks, segment)
	}
	return chunks
}

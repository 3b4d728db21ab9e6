package summarizer

// SummaryPrompt 分块总结提示词，后接两个换行与分块内容
const SummaryPrompt = `Analyze this WhatsApp chat and provide a structured summary including:
- Main discussion topics with message counts
- Key shared links/resources
- Active participation patterns
- Important decisions/action items
- Media shared count
- Notable dates/events

Format the summary with clear section headings and bullet points.`

// NewsletterPrompt 简报导语提示词，后接一个换行与完整总结
const NewsletterPrompt = `Create an engaging newsletter introduction paragraph that highlights key topics from these chat insights:`

func summaryPrompt(chunk string) string {
	return SummaryPrompt + "\n\n" + chunk
}

func newsletterPrompt(summary string) string {
	return NewsletterPrompt + "\n" + summary
}

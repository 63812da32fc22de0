// internal/services/prompt_composer.go
package services

import (
	"fmt"

	"github.com/Corphon/TubeScribe/internal/models"
)

const (
	// ScriptContextLimit 标题/描述提示中脚本的最大字符数
	ScriptContextLimit = 4000
	// DescriptionContextLimit 标签提示中描述的最大字符数
	DescriptionContextLimit = 2000
	// TranslationTemperature 翻译固定使用的低温度
	TranslationTemperature float32 = 0.2

	TagsMinLength = 480
	TagsMaxLength = 490
)

// MasterSystemInstruction 所有生成类提示共用的系统指令，输出语言固定为越南语
const MasterSystemInstruction = `You are a world-class YouTube content strategist AI. Your expertise is threefold:
1.  **YouTube Algorithm Guru:** You have a deep, up-to-the-minute understanding of the YouTube algorithm, ranking factors, and community guidelines. All your output MUST be 100% compliant with YouTube's policies to avoid demonetization or strikes.
2.  **SEO Master:** You excel at keyword research and on-page optimization for YouTube. You craft titles, descriptions, and tags designed to maximize click-through rate (CTR) and search visibility.
3.  **Master Storyteller & Content Writer:** You write incredibly engaging, well-structured, and coherent content. Your target audience is primarily from the USA and Europe, so you must use Western names (e.g., John, Emily, Alexander), cultural references, and settings.

Your responses must be direct and complete. Do not ask clarifying questions, do not summarize, do not break down long texts into parts. Provide the full, continuous content as requested.

All of your output must be in Vietnamese.`

// Prompt 发送给模型的完整请求内容。Temperature 为 nil 表示使用模型默认值
type Prompt struct {
	System      string
	User        string
	Temperature *float32
}

// ComposeScriptPrompt 构建脚本提示
func ComposeScriptPrompt(idea string, wordCount int, style models.WritingStyle, temperature float32) Prompt {
	user := fmt.Sprintf(`Based on the user's idea: "%s"

Write a complete, continuous YouTube video script with a target word count of approximately %d words.

The script must be in the "%s" style. Here is a description of that style for your reference: "%s".

The script must be captivating from start to finish. Use storytelling techniques to create suspense and intrigue. Include credible-sounding citations or references (e.g., "Theo một nghiên cứu của...", "Các chuyên gia tại [Tổ chức] tin rằng..."). Conclude the script with open-ended or thought-provoking questions to encourage viewer comments and engagement. The characters must have American or European names and the context should reflect Western culture.

Generate the script now in Vietnamese.`, idea, wordCount, style.Label, style.Description)

	t := temperature
	return Prompt{System: MasterSystemInstruction, User: user, Temperature: &t}
}

// ComposeTitlePrompt 构建标题提示
func ComposeTitlePrompt(idea, script string, isRegenerate bool) Prompt {
	instruction := "Generate ONE compelling, highly clickable, and SEO-optimized YouTube title in Vietnamese. The title should be intriguing and accurately reflect the content."
	if isRegenerate {
		instruction = "Generate a new, different, and even more creative title that is highly clickable in Vietnamese."
	}

	user := fmt.Sprintf(`Analyze the following user idea and video script.
Idea: "%s"
Script: "%s"

%s`, idea, truncateRunes(script, ScriptContextLimit), instruction)

	return Prompt{System: MasterSystemInstruction, User: user}
}

// ComposeDescriptionPrompt 构建描述提示
func ComposeDescriptionPrompt(idea, script string, isRegenerate bool) Prompt {
	instruction := "Write a compelling, SEO-optimized YouTube video description in Vietnamese."
	if isRegenerate {
		instruction = "Generate a new, different, and more engaging YouTube video description in Vietnamese."
	}

	user := fmt.Sprintf(`Analyze the following user idea and video script.
Idea: "%s"
Script: "%s"

%s The description should hook the viewer in the first few lines, summarize the video's content, and provide value. Conclude the description with 3-5 relevant, high-traffic hashtags.`,
		idea, truncateRunes(script, ScriptContextLimit), instruction)

	return Prompt{System: MasterSystemInstruction, User: user}
}

// ComposeTagsPrompt 构建标签提示。长度区间只是给模型的指令，本地不强制
func ComposeTagsPrompt(idea, title, description string, isRegenerate bool) Prompt {
	instruction := "Generate a comma-separated list of highly relevant, SEO-optimized YouTube tags."
	if isRegenerate {
		instruction = "Generate a new, different set of tags that targets a slightly different keyword cluster."
	}

	user := fmt.Sprintf(`Analyze the following video content:
Title: "%s"
Description: "%s"
Core Idea: "%s"

%s The tags should be in Vietnamese or universally understandable. The total length of the tags string must be between %d and %d characters. The tags should cover broad and specific keywords related to the video's topic. Do not include '#' in the tags. Just provide the comma-separated keywords.`,
		title, truncateRunes(description, DescriptionContextLimit), idea, instruction, TagsMinLength, TagsMaxLength)

	return Prompt{System: MasterSystemInstruction, User: user}
}

// ComposeTranslationPrompt 构建翻译提示：逐字翻译，不附加评论，无系统指令
func ComposeTranslationPrompt(text, languageName string) Prompt {
	user := fmt.Sprintf(`You are an expert translator. Translate the following Vietnamese text accurately and naturally into %s.
Return ONLY the translated text, without any additional titles, headings, or commentary.

**Text to Translate:**
"""
%s
"""`, languageName, text)

	t := TranslationTemperature
	return Prompt{User: user, Temperature: &t}
}

// truncateRunes 取前 n 个字符，不按词边界截断
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

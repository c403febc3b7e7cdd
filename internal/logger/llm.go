package logger

import (
	"io"
	"log"
	"strings"
	"sync"
)

// LLM 调用审计：把每个 persona 的 prompt/响应原文落盘，方便复盘决策链。

var (
	llmMu  sync.Mutex
	llmLog *log.Logger
)

func SetLLMWriter(w io.Writer) {
	llmMu.Lock()
	defer llmMu.Unlock()
	if w == nil {
		llmLog = nil
		return
	}
	llmLog = log.New(w, "", log.LstdFlags)
}

func writeLLM(header string, sections map[string]string, order []string) {
	llmMu.Lock()
	l := llmLog
	llmMu.Unlock()
	if l == nil {
		return
	}
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	for _, title := range order {
		body, ok := sections[title]
		if !ok {
			continue
		}
		b.WriteString("--- ")
		b.WriteString(title)
		b.WriteString(" ---\n")
		b.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			b.WriteString("\n")
		}
	}
	b.WriteString("=====\n")
	l.Print(b.String())
}

// LogLLMRequest 记录一次模型请求（stage 为调用方的槽位名）。
func LogLLMRequest(stage, persona, systemPrompt, userPrompt string) {
	writeLLM("[LLM][request]["+stage+"]["+persona+"]",
		map[string]string{"SYSTEM": systemPrompt, "USER": userPrompt},
		[]string{"SYSTEM", "USER"})
}

// LogLLMResponse 记录模型原始输出。
func LogLLMResponse(stage, persona, raw string) {
	writeLLM("[LLM][response]["+stage+"]["+persona+"]",
		map[string]string{"RAW": raw},
		[]string{"RAW"})
}

package ai

import (
	"context"
	"strings"

	"github.com/xxxsen/common/logutil"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"go.uber.org/zap"
)

const (
	chunkTokenBudget = 400
	overlapBudget    = 80
)

// ChunkSpan is one span produced by the chunker. Ordinal starts at 0 and
// increases in document order.
type ChunkSpan struct {
	Ordinal int
	Content string
}

// Chunker splits markdown (plain text parses as paragraphs) into
// heading-bounded spans sized for embedding.
type Chunker struct{}

func NewChunker() *Chunker {
	return &Chunker{}
}

func (c *Chunker) Chunk(ctx context.Context, source string) []ChunkSpan {
	logger := logutil.GetLogger(ctx)
	md := goldmark.New()
	reader := text.NewReader([]byte(source))
	doc := md.Parser().Parse(reader)

	var chunks []ChunkSpan
	var current []string
	var currentTokens int
	var currentHeading string
	fresh := false

	emit := func(withOverlap bool) {
		if !fresh || len(current) == 0 {
			current = nil
			currentTokens = 0
			return
		}
		content := strings.Join(current, "\n\n")
		if currentHeading != "" {
			content = currentHeading + "\n" + content
		}
		chunks = append(chunks, ChunkSpan{Ordinal: len(chunks), Content: content})
		fresh = false

		if !withOverlap {
			current = nil
			currentTokens = 0
			return
		}
		// Carry a small tail into the next chunk so sentences split at a
		// boundary stay retrievable from both sides.
		var carry []string
		carried := 0
		for i := len(current) - 1; i >= 0; i-- {
			t := estimateTokens(current[i])
			if carried+t > overlapBudget {
				break
			}
			carried += t
			carry = append([]string{current[i]}, carry...)
		}
		if len(carry) == len(current) {
			carry, carried = nil, 0
		}
		current = carry
		currentTokens = carried
	}

	add := func(txt string, tokens int) {
		if currentTokens+tokens > chunkTokenBudget {
			emit(true)
		}
		current = append(current, txt)
		currentTokens += tokens
		fresh = true
	}

	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.Heading:
			if n.Level <= 2 {
				emit(false)
				currentHeading = string(n.Text(reader.Source()))
				continue
			}
			txt := string(n.Text(reader.Source()))
			add(txt, estimateTokens(txt))
		case *ast.FencedCodeBlock:
			lang := string(n.Language(reader.Source()))
			var code strings.Builder
			for i := 0; i < n.Lines().Len(); i++ {
				line := n.Lines().At(i)
				code.Write(line.Value(reader.Source()))
			}
			block := "```" + lang + "\n" + code.String() + "```"
			add(block, estimateTokens(block))
		default:
			txt := extractText(n, reader.Source())
			if txt == "" {
				continue
			}
			add(txt, estimateTokens(txt))
		}
	}
	emit(false)
	logger.Debug("chunking completed", zap.Int("total_chunks", len(chunks)), zap.Int("source_bytes", len(source)))
	return chunks
}

// estimateTokens is a cheap heuristic: words for latin text, one token per
// rune for CJK.
func estimateTokens(text string) int {
	count := 0
	for _, r := range text {
		if r > 127 {
			count++
		}
	}
	count += len(strings.Fields(text))
	if count == 0 && len(text) > 0 {
		return 1
	}
	return count
}

func extractText(n ast.Node, source []byte) string {
	var sb strings.Builder
	ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if node.Kind() == ast.KindText {
			sb.Write(node.(*ast.Text).Segment.Value(source))
			sb.WriteByte(' ')
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

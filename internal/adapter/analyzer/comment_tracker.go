package analyzer

import (
	"regexp"
	"strings"

	"phptdd/internal/domain"
)

// CommentClass is how a content token affects the pending comment.
type CommentClass int

const (
	ClassOrdinary CommentClass = iota
	ClassBlank
	ClassBlockComment
	ClassLineCommentStart
	ClassLineCommentContinuation
)

func (c CommentClass) String() string {
	switch c {
	case ClassBlank:
		return "blank"
	case ClassBlockComment:
		return "block-comment"
	case ClassLineCommentStart:
		return "line-comment-start"
	case ClassLineCommentContinuation:
		return "line-comment-continuation"
	default:
		return "ordinary"
	}
}

var (
	blockCommentPattern = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineCommentPattern  = regexp.MustCompile(`//.*`)
)

// ClassifyComment classifies raw token text. open is the comment currently
// pending, if any; a line comment continues it only when it is inline.
func ClassifyComment(text string, open *domain.Comment) CommentClass {
	switch {
	case blockCommentPattern.MatchString(text):
		return ClassBlockComment
	case lineCommentPattern.MatchString(text):
		if open != nil && open.Kind == domain.CommentInline {
			return ClassLineCommentContinuation
		}
		return ClassLineCommentStart
	case strings.TrimSpace(text) == "":
		return ClassBlank
	default:
		return ClassOrdinary
	}
}

// commentTracker holds the comment waiting for a declaration.
type commentTracker struct {
	pending *domain.Comment
}

// observe updates the pending comment for the content token at index,
// which starts on line.
func (c *commentTracker) observe(index int, tok domain.Token, line int, tokens []domain.Token) {
	switch ClassifyComment(tok.Text, c.pending) {
	case ClassBlockComment:
		c.pending = &domain.Comment{
			Kind:      domain.CommentBlock,
			StartLine: line,
			EndLine:   line + strings.Count(tok.Text, "\n"),
			Text:      tok.Text,
		}
	case ClassLineCommentContinuation:
		c.pending.EndLine = line
		c.pending.Text += "\n" + strings.TrimRight(tok.Text, "\r\n")
	case ClassLineCommentStart:
		c.pending = &domain.Comment{
			Kind:      domain.CommentInline,
			StartLine: line,
			EndLine:   line,
			Text:      strings.TrimRight(tok.Text, "\r\n"),
		}
	case ClassOrdinary:
		// Code that is not followed by a declaration on the same line
		// orphans a comment that ended on an earlier line.
		if c.pending != nil && !IsDeclarationStart(index+1, line, tokens) && line > c.pending.EndLine {
			c.pending = nil
		}
	}
}

// take hands the pending comment to a declaration.
func (c *commentTracker) take() *domain.Comment {
	comment := c.pending
	c.pending = nil
	return comment
}

// Package extract parses raw log dumps into structured error records.
//
// One pasted message may contain many concatenated log stanzas from the
// upstream platform. Each stanza begins with a "URL:" marker; the extractor
// splits on that marker, matches the fields of each candidate block
// independently, and applies an explicit acceptance predicate. Malformed
// blocks are dropped silently; extraction never fails.
package extract

import (
	"regexp"
	"strings"
)

// blockDelimiter marks the start of one log stanza within a paste.
const blockDelimiter = "URL:"

// Field patterns, compiled once. The message pattern is non-greedy so it
// stops at the first closing quote.
var (
	emailPattern   = regexp.MustCompile(`[\w.-]+@[\w.-]+`)
	codePattern    = regexp.MustCompile(`Error code\s*=\s*(\d+)`)
	messagePattern = regexp.MustCompile(`['"]?message['"]?:\s*['"](.+?)['"]`)
)

// Extractor splits log dumps into candidate blocks and validates each one.
type Extractor struct{}

// NewExtractor creates a new block extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract parses fullText into zero or more accepted records, in block
// order. Input with no delimiter, or with only malformed blocks, yields an
// empty result rather than an error.
func (e *Extractor) Extract(fullText string) []Record {
	segments := strings.Split(fullText, blockDelimiter)
	if len(segments) < 2 {
		return nil
	}

	var records []Record

	// The segment before the first delimiter precedes any error block.
	for _, segment := range segments[1:] {
		block := blockDelimiter + strings.TrimSpace(segment)

		candidate := parseBlock(block)
		if accept(candidate) {
			records = append(records, candidate)
		}
	}

	return records
}

// parseBlock pulls the three named fields out of one candidate block.
// Missing fields are left empty; acceptance is decided separately.
func parseBlock(block string) Record {
	var rec Record

	if m := emailPattern.FindString(block); m != "" {
		rec.Email = m
	}

	if m := codePattern.FindStringSubmatch(block); m != nil {
		rec.Code = m[1]
	}

	if m := messagePattern.FindStringSubmatch(block); m != nil {
		rec.Message = strings.TrimSpace(m[1])
	}

	return rec
}

// accept is the acceptance policy: a candidate becomes a record iff it has
// an email, an actionable code, and a non-empty message. Partial matches
// never yield a record.
func accept(rec Record) bool {
	if rec.Email == "" || rec.Message == "" {
		return false
	}
	return rec.Code == CodeBadRequest || rec.Code == CodeConflict
}

package markdown

import (
	"strings"
	"testing"
	"time"
)

func TestParseFrontMatterYAML(t *testing.T) {
	source := []byte(`---
title: "Hello World"
date: 2024-01-15
author: Jane Doe
authorPicture: /img/jane.png
description: A first post
tags: [go, blogging]
---
# Heading

Body text.
`)

	fm, body, err := ParseFrontMatter(source)
	if err != nil {
		t.Fatalf("ParseFrontMatter: %v", err)
	}
	if fm.Title != "Hello World" {
		t.Fatalf("expected title Hello World, got %q", fm.Title)
	}
	if fm.Date != "2024-01-15" {
		t.Fatalf("expected date 2024-01-15, got %q", fm.Date)
	}
	if fm.Author != "Jane Doe" || fm.AuthorPicture != "/img/jane.png" {
		t.Fatalf("unexpected author fields: %+v", fm)
	}
	if len(fm.Tags) != 2 || fm.Tags[0] != "go" || fm.Tags[1] != "blogging" {
		t.Fatalf("unexpected tags %#v", fm.Tags)
	}
	if !strings.Contains(string(body), "# Heading") || strings.Contains(string(body), "title:") {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestParseFrontMatterFallsBackToLenientParser(t *testing.T) {
	source := []byte("---\ntitle: Why: a story\ntags: [\"a\", \"b\"]\nauthor: 'Sam'\n---\nBody\n")

	fm, body, err := ParseFrontMatter(source)
	if err != nil {
		t.Fatalf("ParseFrontMatter: %v", err)
	}
	if fm.Title != "Why: a story" {
		t.Fatalf("expected lenient title, got %q", fm.Title)
	}
	if fm.Author != "Sam" {
		t.Fatalf("expected quotes stripped, got %q", fm.Author)
	}
	if len(fm.Tags) != 2 || fm.Tags[1] != "b" {
		t.Fatalf("unexpected tags %#v", fm.Tags)
	}
	if strings.TrimSpace(string(body)) != "Body" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestParseFrontMatterWithoutBlock(t *testing.T) {
	fm, body, err := ParseFrontMatter([]byte("# Just a body\n"))
	if err != nil {
		t.Fatalf("ParseFrontMatter: %v", err)
	}
	if fm.Title != "" || len(fm.Tags) != 0 {
		t.Fatalf("expected empty metadata, got %+v", fm)
	}
	if !strings.Contains(string(body), "# Just a body") {
		t.Fatalf("expected whole input as body, got %q", body)
	}
}

func TestParseFrontMatterIgnoresNonYAMLBlocks(t *testing.T) {
	sources := map[string]string{
		"toml": "+++\ntitle = \"Hello\"\n+++\nBody\n",
		"json": ";;;\n{\"title\": \"Hello\"}\n;;;\nBody\n",
	}
	for name, source := range sources {
		fm, body, err := ParseFrontMatter([]byte(source))
		if err != nil {
			t.Fatalf("%s: ParseFrontMatter: %v", name, err)
		}
		if fm.Title != "" {
			t.Fatalf("%s: expected no title, got %q", name, fm.Title)
		}
		if string(body) != source {
			t.Fatalf("%s: expected the block to stay in the body, got %q", name, body)
		}
	}
}

func TestParseInlineListWithoutJSONQuotes(t *testing.T) {
	tags := tagsField(parseInlineList("[go, 'web', \"cms\"]"))
	if len(tags) != 3 || tags[0] != "go" || tags[1] != "web" || tags[2] != "cms" {
		t.Fatalf("unexpected tags %#v", tags)
	}
}

func TestTagsFieldCommaString(t *testing.T) {
	tags := tagsField("go, testing , ")
	if len(tags) != 2 || tags[1] != "testing" {
		t.Fatalf("unexpected tags %#v", tags)
	}
}

func TestNormalizeDate(t *testing.T) {
	cases := map[string]string{
		"2024-03-05":           "2024-03-05",
		"2024-03-05T10:00:00Z": "2024-03-05",
		"2024/03/05":           "2024-03-05",
		"March 5, 2024":        "2024-03-05",
		"  ":                   "",
		"someday":              "someday",
	}
	for input, want := range cases {
		if got := NormalizeDate(input); got != want {
			t.Fatalf("NormalizeDate(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestBuildDocumentReportsSchemaWarnings(t *testing.T) {
	source := []byte("---\ntitle: Numbers\nauthor: 42\n---\nBody\n")
	modified := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	doc, err := BuildDocument("posts/numbers.md", source, modified)
	if err != nil {
		t.Fatalf("BuildDocument: %v", err)
	}
	if doc.FilePath != "posts/numbers.md" || !doc.LastModified.Equal(modified) {
		t.Fatalf("unexpected document metadata: %+v", doc)
	}
	if doc.FrontMatter.Author != "42" {
		t.Fatalf("expected numeric author rendered as text, got %q", doc.FrontMatter.Author)
	}
	if len(doc.Warnings) != 1 || !strings.HasPrefix(doc.Warnings[0], "#/author") {
		t.Fatalf("expected one author warning, got %#v", doc.Warnings)
	}
}

func TestBuildDocumentWithoutWarnings(t *testing.T) {
	doc, err := BuildDocument("ok.md", []byte("---\ntitle: Fine\ntags: [a]\n---\nBody\n"), time.Time{})
	if err != nil {
		t.Fatalf("BuildDocument: %v", err)
	}
	if len(doc.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %#v", doc.Warnings)
	}
}

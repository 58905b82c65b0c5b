package mcpserver

// ImportFormatURI is the resource URI of ImportFormat.
const ImportFormatURI = "neuronote://import-format"

// ImportFormat describes how Markdown files are turned into notes by the
// import_note tool.
const ImportFormat = `# NeuroNote Import Format

A note has a title and a plain-text content. Markdown files are mapped onto
that shape as follows.

## Title

The first of these that is present wins:

1. ` + "`title`" + ` in the YAML frontmatter.
2. The first ` + "`# Heading`" + ` line of the body. The heading line is removed
   from the content.
3. The file name without its extension.

## Content

Everything after the frontmatter, trimmed. It must not be empty.

## Category

Notes are grouped by their first tag. Tags come from the frontmatter
` + "`tags`" + ` field (a YAML list or a comma-separated string) or from
` + "`#hashtags`" + ` in the body. Notes without tags fall into ` + "`General`" + `.

## Example

` + "```" + `markdown
---
title: Weekly standup
tags: [meetings]
---

Attendees: Alice, Bob.
Next review on Friday.
` + "```" + `

## Sources

` + "`import_note`" + ` accepts an http(s) URL or a base64 ` + "`data:`" + ` URI with a
text media type. Content must be UTF-8 and at most 1 MB.
`

package mcpserver

// ChapterFormatContract describes the chapter file layout for LLM clients.
const ChapterFormatContract = `# Chapter Format

Chapters live in ` + "`" + `chapters/NNN-slug.md` + "`" + `. The file name without ` + "`" + `.md` + "`" + `
is the chapter id.

## Structure

` + "```" + `markdown
---
order: 3
title: "Night Market"
tags: ["draft", "act-two"]
characters: ["sarah", "alex"]
location: "market"
---

Prose body. Dialogue lines use the form:
Sarah: "Wait!"
` + "```" + `

## Rules

1. The block opens with ` + "`" + `---` + "`" + ` on the very first line and closes with a line that is
   exactly ` + "`" + `---` + "`" + `. One blank line separates it from the body.
2. **order** is an integer; chapters are read in ascending order. Duplicates are allowed
   but reported.
3. **title** defaults to "Untitled" when missing.
4. **tags** and **characters** are lists of strings. **characters** holds character ids
   from ` + "`" + `characters/characters.json` + "`" + `, not display names.
5. **location** is a location id from ` + "`" + `locations/locations.json` + "`" + `.
6. Unknown keys are kept verbatim.
7. A missing or malformed block is not fatal: the whole file is read as body with
   default metadata.
8. Characters that any chapter lists cannot be deleted.
`

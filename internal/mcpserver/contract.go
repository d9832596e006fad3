package mcpserver

// DocumentFormatContract describes the canonical Markdown document format
// and the field ownership rules that LLM consumers must respect when
// creating or editing vault documents.
const DocumentFormatContract = `# Othala Document Format Contract

Every Markdown document stored in Othala MUST follow this structure.

## Structure

` + "```" + `markdown
---
title: Human-readable title        # REQUIRED - used in search and listings
tags:                               # derived; managed by enrichment, see below
  - game
  - role-playing-rpg
igdb_id: 1942                       # source field; managed by enrichment
rating: 9                           # user field; yours, never overwritten
status: playing                     # user field
---

Body text in standard Markdown.
` + "```" + `

## Field ownership

Frontmatter fields fall into three classes:

1. **Source fields** (title, genres, developer, release_date, igdb_id,
   steam_appid, calibre_id, github_repo, ...) are owned by the external
   catalogs. Enrichment replaces them on every sync. Hand edits to these
   fields will be lost; fix the data at the source instead.
2. **Derived fields** (tags, image_url, enriched) are recomputed from the
   source fields. Tags you add by hand are preserved and appended after
   the computed set.
3. **User fields** (rating, status, play_status, reading_status, notes,
   date_started, date_finished, and any field enrichment has never been
   told about) are never touched by a sync.

## Rules

1. **YAML frontmatter is mandatory.** The ` + "`" + `---` + "`" + ` fences must be the first
   thing in the file (no leading blank lines). A document with a broken
   header is refused by every enrichment tool until fixed by hand.
2. **` + "`" + `title` + "`" + ` field is required.** It is the primary display name everywhere.
3. **Tags** are lowercase, kebab-case (e.g. ` + "`" + `role-playing-rpg` + "`" + `). Enrichment
   canonicalizes every tag to this form.
4. **File paths** end with ` + "`" + `.md` + "`" + ` and use forward slashes. Managed documents
   live under ` + "`" + `games/` + "`" + `, ` + "`" + `books/` + "`" + `, and ` + "`" + `repos/` + "`" + `.
5. **Cover art** is cached under ` + "`" + `assets/covers/` + "`" + ` and embedded in a
   ` + "`" + `## Cover Art` + "`" + ` section. Do not add that section by hand; enrichment
   inserts it exactly once.
6. **Encoding** is UTF-8 with a trailing newline.

## Example

` + "```" + `markdown
---
title: Disco Elysium
tags:
  - game
  - games
  - role-playing-rpg
igdb_id: 27116
release_date: "2019-10-15"
rating: 10
status: finished
enriched: true
---

# Disco Elysium

## Cover Art
![[assets/covers/disco-elysium.jpg]]

## Game Details

## Notes

An inner voice for every skill.
` + "```" + `
`

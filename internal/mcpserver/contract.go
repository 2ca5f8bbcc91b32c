package mcpserver

// NoteFormatContract describes the canonical note shape that LLM
// consumers should follow when creating or updating notes.
const NoteFormatContract = `# Ansuz Note Contract

Every note stored in Ansuz has these fields.

## Fields

- **title** (required): human-readable title, used in search, wikilink
  resolution and the graph. Titles should be unique; when two notes
  share a title, title wikilinks resolve to the older note.
- **body**: free text. May contain wikilinks and inline tags.
- **tags**: list of tags. Tags are lowercased on write; the leading
  "#" is optional on input. Inline body tags ("#like-this") are merged
  into the tag list automatically.
- **color**: optional display color, "#rgb" or "#rrggbb".

## Wikilinks

Use double brackets in the body to reference other notes:

- ` + "`[[Some Title]]`" + ` links by title (case-insensitive exact match).
- ` + "`[[ID:01ARZ3NDEKTSV4RRFFQ69G5FAV]]`" + ` links by note id.

Links to notes that do not exist are ignored until the target is
created; they resolve automatically once it appears.

## Tags

Inline tags use ` + "`#`" + ` followed by letters, digits, "_" or "-", e.g.
` + "`#project-x`" + `. Matching is case-insensitive.

## Query language

The query_notes tool accepts statements of the form:

    select <fields|*> from notes
      [where <cond> [and|or <cond>]...]
      [group by <field>]
      [order by <field> [asc|desc]]
      [limit <n>]

Conditions combine strictly left to right; there is no operator
precedence and no parenthesized grouping. Useful computed fields:
links_count, tags_count, word_count, char_count.

Example:

    select title, links_count from notes where tags_count > 0 and word_count > 100 order by updated_at desc limit 10
`

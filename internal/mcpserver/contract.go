package mcpserver

// ContentFormatContract describes the canonical record format that LLM
// consumers should follow when creating content.
const ContentFormatContract = `# Lorekeep Content Format Contract

Every content record is one Markdown file with YAML frontmatter, stored at
` + "`" + `content/<campaign>/<typeDir>/<slug>.md` + "`" + `.

## Content types

| type    | directory          | purpose                         |
|---------|--------------------|---------------------------------|
| npc     | characters/npc     | non-player characters           |
| monster | characters/monster | creatures and adversaries       |
| player  | characters/player  | player characters               |
| item    | items              | equipment, loot, artifacts      |
| session | sessions           | session logs and summaries      |
| note    | notes              | free-form campaign notes        |

## Structure

` + "```" + `markdown
---
slug: "elara"
name: "Elara"
race: "Elf"
tags: ["ally", "mage"]
status: "published"
created: "2026-01-15T10:00:00Z"
updated: "2026-01-15T10:00:00Z"
version: 1
---

Markdown body describing the record.
` + "```" + `

## Rules

1. **` + "`" + `name` + "`" + ` is required** for every type. The slug is derived from it
   (lowercase, diacritics stripped, spaces become hyphens) when not supplied.
2. **Do not set** ` + "`" + `slug` + "`" + `, ` + "`" + `created` + "`" + `, ` + "`" + `updated` + "`" + `, or ` + "`" + `version` + "`" + `
   when creating: the engine stamps them.
3. **Tags** are lowercase, kebab-case strings.
4. **Status** defaults to ` + "`" + `published` + "`" + `; use ` + "`" + `draft` + "`" + ` to keep a record
   out of player-facing listings.
5. Fields outside a type's schema are rejected by validation when they carry
   rules; unknown extra keys are preserved but discouraged.
6. **Encoding** is UTF-8; file paths use forward slashes.

## Example

Create an NPC with ` + "`" + `create_content` + "`" + `:

` + "```" + `json
{
  "type": "npc",
  "fields": {"name": "Elara", "race": "Elf", "disposition": "friendly", "tags": ["ally"]},
  "body": "Court mage of the Silver Keep."
}
` + "```" + `
`

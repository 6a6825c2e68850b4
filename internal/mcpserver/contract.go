package mcpserver

// FrontmatterContract describes the frontmatter a post file carries and how
// each field is interpreted by the index.
const FrontmatterContract = `# Wanderlog Post Frontmatter

Every post is an ` + "`" + `.mdx` + "`" + ` file under a content root. The file starts with a YAML
block fenced by ` + "`" + `---` + "`" + ` lines, followed by the MDX body.

## Structure

` + "```" + `markdown
---
title: Rainy Season in Kyoto          # REQUIRED - empty or missing hides the post
description: Temples, moss and tea    # OPTIONAL
date: 2024-06-20                      # OPTIONAL - ISO-8601; defaults to file mtime
slug: kyoto-rainy-season              # OPTIONAL - defaults to the file path
category: Domestic                    # OPTIONAL - display name, see list_categories
subcategory: Kansai                   # OPTIONAL - a name or a list of names
tags: [temples, rain]                 # OPTIONAL - a name or a list of names
thumbnail: /images/kyoto.jpg          # OPTIONAL - defaults to a placeholder
readingTime: 7                        # OPTIONAL - minutes, defaults to 5
author: Aiko                          # OPTIONAL - a name or {name, avatar}
featured: false                       # OPTIONAL
draft: false                          # OPTIONAL - true hides the post everywhere
---

Body text in MDX.
` + "```" + `

## Rules

1. **Slugs** come from ` + "`" + `slug` + "`" + ` when set. Otherwise they are built from the last two
   path segments: ` + "`" + `kanto/tokyo-solo.mdx` + "`" + ` becomes ` + "`" + `kanto-tokyo-solo` + "`" + `.
2. **Slugs are unique.** When two files share a slug the first one found wins.
3. **Category and subcategory** hold display names (` + "`" + `Domestic` + "`" + `, ` + "`" + `Kansai` + "`" + `), not URL
   slugs. Matching is exact.
4. **Tags** are matched exactly; ` + "`" + `Tokyo` + "`" + ` and ` + "`" + `tokyo` + "`" + ` are different tags.
5. **Dates** accept ` + "`" + `2024-06-20` + "`" + `, ` + "`" + `2024-06-20 09:30:00` + "`" + ` or full RFC 3339.
   Lists are ordered newest first.
6. **Malformed YAML** skips the file; the rest of the site still builds.

## Example

` + "```" + `markdown
---
title: Ramen Crawl in Sapporo
date: 2024-03-11
category: Gourmet
subcategory: [Local Food, Hokkaido]
tags: [ramen, winter]
author:
  name: Kenji
  avatar: /images/authors/kenji.jpg
featured: true
---

Miso ramen is the city's signature bowl.
` + "```" + `
`

package enrich

import "fmt"

// Body skeletons for newly created documents. Section headings double as
// anchors for the cover art patch; the inline `=this.field` queries render
// frontmatter values in Obsidian-style viewers.

func gameBody(title string) string {
	return fmt.Sprintf(`# %s

## Game Details

**Developer**: `+"`=this.developer`"+`
**Release Date**: `+"`=this.release_date`"+`
**Genres**: `+"`=this.genres`"+`

## Notes

`, title)
}

func bookBody(title string) string {
	return fmt.Sprintf(`# %s

## Book Information

**Authors**: `+"`=this.authors`"+`
**Publisher**: `+"`=this.publisher`"+`
**Published**: `+"`=this.release_date`"+`

## Notes

`, title)
}

func repoBody(title string) string {
	return fmt.Sprintf(`# %s

## Repository Details

**Repository**: `+"`=this.github_repo`"+`
**Language**: `+"`=this.language`"+`
**Stars**: `+"`=this.stars`"+`

## Notes

`, title)
}

package patch

import (
	"strings"
	"testing"
)

const gameBody = `## Game Details
**Platform:** ` + "`=this.platforms`" + `
**Genre:** ` + "`=this.genres`" + `

## Description
A space exploration game.

## Notes
`

func TestApply_InsertsAfterAnchor(t *testing.T) {
	out := Apply(gameBody, "Attachments/covers/outer-wilds.jpg", DefaultAnchors)

	idxAnchor := strings.Index(out, "## Game Details")
	idxCover := strings.Index(out, "## Cover Art")
	idxDesc := strings.Index(out, "## Description")
	if idxCover < 0 {
		t.Fatalf("cover section missing:\n%s", out)
	}
	if !(idxAnchor < idxCover && idxCover < idxDesc) {
		t.Errorf("cover section in wrong place:\n%s", out)
	}
	if !strings.Contains(out, "![[Attachments/covers/outer-wilds.jpg]]") {
		t.Errorf("image reference missing:\n%s", out)
	}
}

func TestApply_Idempotent(t *testing.T) {
	once := Apply(gameBody, "covers/a.jpg", DefaultAnchors)
	twice := Apply(once, "covers/a.jpg", DefaultAnchors)
	if once != twice {
		t.Errorf("second apply changed the body:\n%s", twice)
	}
	if strings.Count(twice, "## Cover Art") != 1 {
		t.Errorf("expected exactly one Cover Art section, got %d", strings.Count(twice, "## Cover Art"))
	}
}

func TestApply_ExistingSectionCaseInsensitive(t *testing.T) {
	body := "## COVER ART\n![[old.jpg]]\n\n## Description\ntext\n"
	if out := Apply(body, "covers/new.jpg", DefaultAnchors); out != body {
		t.Errorf("body with existing cover section was modified:\n%s", out)
	}
}

func TestApply_NoAnchorPrepends(t *testing.T) {
	body := "Some free-form note without sections.\n"
	out := Apply(body, "covers/a.jpg", DefaultAnchors)
	if !strings.HasPrefix(out, "## Cover Art") {
		t.Errorf("expected prepended section:\n%s", out)
	}
	if !strings.HasSuffix(out, body) {
		t.Errorf("original body not preserved:\n%s", out)
	}
}

func TestApply_EmojiAnchorHeading(t *testing.T) {
	body := "## 📖 Book Information\n**Author:** x\n\n## 📝 Description\ntext\n"
	out := Apply(body, "covers/book.jpg", DefaultAnchors)
	idxInfo := strings.Index(out, "Book Information")
	idxCover := strings.Index(out, "## Cover Art")
	idxDesc := strings.Index(out, "Description")
	if !(idxInfo < idxCover && idxCover < idxDesc) {
		t.Errorf("cover section in wrong place:\n%s", out)
	}
}

func TestApply_EmptyRefIsNoOp(t *testing.T) {
	if out := Apply(gameBody, "", DefaultAnchors); out != gameBody {
		t.Error("empty image ref should not touch the body")
	}
}

func TestApply_AnchorSectionAtEndOfBody(t *testing.T) {
	body := "intro\n\n## Game Details\nlast section, no trailing heading"
	out := Apply(body, "covers/x.jpg", DefaultAnchors)
	if !strings.Contains(out, "## Cover Art") {
		t.Fatalf("cover section missing:\n%s", out)
	}
	if strings.Index(out, "## Game Details") > strings.Index(out, "## Cover Art") {
		t.Errorf("cover must follow the anchor section:\n%s", out)
	}
}

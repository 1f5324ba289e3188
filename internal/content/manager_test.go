package content_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ravenholt/lorekeep/internal/apperr"
	"github.com/ravenholt/lorekeep/internal/content"
	"github.com/ravenholt/lorekeep/internal/hooks"
	"github.com/ravenholt/lorekeep/internal/testutil"
)

func mustCreate(t *testing.T, env *testutil.Env, typeID string, fields map[string]any, body string) *content.Record {
	t.Helper()
	rec, aerr := env.Manager.Create(context.Background(), content.CreateInput{
		Type:   typeID,
		Fields: fields,
		Body:   body,
	})
	if aerr != nil {
		t.Fatalf("create %s: %v", typeID, aerr)
	}
	return rec
}

func TestCreateWritesFileAndGetRoundTrips(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	rec := mustCreate(t, env, "npc", map[string]any{
		"name":     "Elara Moonwhisper",
		"race":     "elf",
		"location": "Thornwood Keep",
		"tags":     []string{"ally", "mage"},
	}, "A mysterious elven mage.\n")

	if rec.Slug != "elara-moonwhisper" {
		t.Errorf("slug = %q", rec.Slug)
	}
	if rec.Version() != 1 {
		t.Errorf("version = %d, want 1", rec.Version())
	}
	if rec.Status() != content.StatusPublished {
		t.Errorf("status = %q", rec.Status())
	}
	if rec.Fields["disposition"] != "unknown" {
		t.Errorf("default not applied: disposition = %v", rec.Fields["disposition"])
	}

	// File lands under <campaign>/<type dir>/<slug>.md for the default campaign.
	fp := filepath.Join(env.Root, "default", "characters", "npc", "elara-moonwhisper.md")
	raw, err := os.ReadFile(fp)
	if err != nil {
		t.Fatalf("content file: %v", err)
	}
	if !strings.HasPrefix(string(raw), "---\nslug: \"elara-moonwhisper\"\n") {
		t.Errorf("file should start with ordered frontmatter, got:\n%s", raw)
	}

	got, aerr := env.Manager.Get(ctx, "npc", "elara-moonwhisper", "", true)
	if aerr != nil {
		t.Fatal(aerr)
	}
	if got.Name() != "Elara Moonwhisper" || got.Body != "A mysterious elven mage.\n" {
		t.Errorf("round-trip mismatch: name=%q body=%q", got.Name(), got.Body)
	}

	// includeBody=false strips the body from the returned copy only.
	got, aerr = env.Manager.Get(ctx, "npc", "elara-moonwhisper", "", false)
	if aerr != nil {
		t.Fatal(aerr)
	}
	if got.Body != "" {
		t.Error("body should be stripped")
	}
}

func TestCreateErrors(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	_, aerr := env.Manager.Create(ctx, content.CreateInput{Type: "dragon"})
	if aerr == nil || aerr.Code != apperr.CodeInvalidContentType {
		t.Errorf("unknown type: %v", aerr)
	}

	_, aerr = env.Manager.Create(ctx, content.CreateInput{Type: "npc", Fields: map[string]any{}})
	if aerr == nil || aerr.Code != apperr.CodeValidation {
		t.Errorf("missing name: %v", aerr)
	}

	mustCreate(t, env, "note", map[string]any{"name": "Session Zero"}, "")
	_, aerr = env.Manager.Create(ctx, content.CreateInput{
		Type:   "note",
		Fields: map[string]any{"name": "Session Zero"},
	})
	if aerr == nil || aerr.Code != apperr.CodeExists {
		t.Errorf("duplicate slug: %v", aerr)
	}
}

func TestCreateBeforeHookAbortLeavesNoFile(t *testing.T) {
	env := testutil.NewEnv(t)
	veto := errors.New("not allowed")
	env.Hooks.Register(hooks.Hook{
		Name: "veto", Phase: hooks.Before, Action: hooks.ActionCreate,
		Handler: func(_ context.Context, _ *hooks.HookContext) (map[string]any, error) {
			return nil, veto
		},
	})

	_, aerr := env.Manager.Create(context.Background(), content.CreateInput{
		Type:   "note",
		Fields: map[string]any{"name": "Blocked"},
	})
	if aerr == nil || aerr.Code != apperr.CodeCreate {
		t.Fatalf("aerr = %v", aerr)
	}
	if !errors.Is(aerr, veto) {
		t.Errorf("cause should be preserved: %v", aerr)
	}
	if env.Store.Exists("default/notes/blocked.md") {
		t.Error("aborted create must not write a file")
	}
}

func TestCreateHookCanRewriteData(t *testing.T) {
	env := testutil.NewEnv(t)
	env.Hooks.Register(hooks.Hook{
		Name: "stamp", Phase: hooks.Before, Action: hooks.ActionCreate,
		Handler: func(_ context.Context, hc *hooks.HookContext) (map[string]any, error) {
			hc.Data["location"] = "Ravenholt"
			return hc.Data, nil
		},
	})

	rec := mustCreate(t, env, "npc", map[string]any{"name": "Brom"}, "")
	if rec.Fields["location"] != "Ravenholt" {
		t.Errorf("location = %v", rec.Fields["location"])
	}
}

func TestGetServedFromCache(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	mustCreate(t, env, "note", map[string]any{"name": "Rumors"}, "The mill is haunted.\n")

	if _, aerr := env.Manager.Get(ctx, "note", "rumors", "", true); aerr != nil {
		t.Fatal(aerr)
	}

	// Remove the backing file: the cached record still serves.
	if err := env.Store.Delete("default/notes/rumors.md"); err != nil {
		t.Fatal(err)
	}
	got, aerr := env.Manager.Get(ctx, "note", "rumors", "", true)
	if aerr != nil {
		t.Fatalf("expected cache hit: %v", aerr)
	}
	if got.Body != "The mill is haunted.\n" {
		t.Errorf("body = %q", got.Body)
	}
}

func TestGetNotFound(t *testing.T) {
	env := testutil.NewEnv(t)
	_, aerr := env.Manager.Get(context.Background(), "npc", "nobody", "", true)
	if aerr == nil || aerr.Code != apperr.CodeNotFound {
		t.Errorf("aerr = %v", aerr)
	}
}

func TestUpdateMergesAndBumpsVersion(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	rec := mustCreate(t, env, "player", map[string]any{"name": "Kara", "class": "rogue"}, "Backstory.\n")
	created := rec.Fields[content.KeyCreated]

	got, aerr := env.Manager.Update(ctx, content.UpdateInput{
		Type:   "player",
		Slug:   "kara",
		Fields: map[string]any{"level": 5},
	})
	if aerr != nil {
		t.Fatal(aerr)
	}
	if got.Version() != 2 {
		t.Errorf("version = %d, want 2", got.Version())
	}
	if got.Fields["class"] != "rogue" {
		t.Errorf("merge lost class: %v", got.Fields["class"])
	}
	if got.Fields[content.KeyCreated] != created {
		t.Errorf("created changed: %v != %v", got.Fields[content.KeyCreated], created)
	}
	if got.Body != "Backstory.\n" {
		t.Errorf("nil Body must keep the stored body, got %q", got.Body)
	}

	newBody := "Rewritten.\n"
	got, aerr = env.Manager.Update(ctx, content.UpdateInput{
		Type: "player",
		Slug: "kara",
		Body: &newBody,
	})
	if aerr != nil {
		t.Fatal(aerr)
	}
	if got.Body != newBody || got.Version() != 3 {
		t.Errorf("body = %q version = %d", got.Body, got.Version())
	}
}

func TestUpdateSlugChangeMovesFile(t *testing.T) {
	env := testutil.NewEnv(t)
	mustCreate(t, env, "item", map[string]any{"name": "Plain Sword"}, "")

	got, aerr := env.Manager.Update(context.Background(), content.UpdateInput{
		Type:   "item",
		Slug:   "plain-sword",
		Fields: map[string]any{"slug": "flametongue", "name": "Flametongue"},
	})
	if aerr != nil {
		t.Fatal(aerr)
	}
	if got.Slug != "flametongue" {
		t.Errorf("slug = %q", got.Slug)
	}
	if !env.Store.Exists("default/items/flametongue.md") {
		t.Error("new file missing")
	}
	if env.Store.Exists("default/items/plain-sword.md") {
		t.Error("old file should be removed")
	}
}

func TestUpdateNotFound(t *testing.T) {
	env := testutil.NewEnv(t)
	_, aerr := env.Manager.Update(context.Background(), content.UpdateInput{Type: "npc", Slug: "ghost"})
	if aerr == nil || aerr.Code != apperr.CodeNotFound {
		t.Errorf("aerr = %v", aerr)
	}
}

func TestUpdateValidationFailure(t *testing.T) {
	env := testutil.NewEnv(t)
	mustCreate(t, env, "player", map[string]any{"name": "Kara"}, "")

	_, aerr := env.Manager.Update(context.Background(), content.UpdateInput{
		Type:   "player",
		Slug:   "kara",
		Fields: map[string]any{"level": 99},
	})
	if aerr == nil || aerr.Code != apperr.CodeValidation {
		t.Errorf("aerr = %v", aerr)
	}
}

func TestDelete(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	mustCreate(t, env, "monster", map[string]any{"name": "Gnarl"}, "")

	var hookSawName string
	env.Hooks.Register(hooks.Hook{
		Name: "observe", Phase: hooks.Before, Action: hooks.ActionDelete,
		Handler: func(_ context.Context, hc *hooks.HookContext) (map[string]any, error) {
			hookSawName, _ = hc.Data["name"].(string)
			return nil, nil
		},
	})

	if aerr := env.Manager.Delete(ctx, "monster", "gnarl", ""); aerr != nil {
		t.Fatal(aerr)
	}
	if hookSawName != "Gnarl" {
		t.Errorf("delete hook saw %q", hookSawName)
	}
	if env.Store.Exists("default/characters/monster/gnarl.md") {
		t.Error("file should be gone")
	}
	if _, aerr := env.Manager.Get(ctx, "monster", "gnarl", "", true); aerr == nil || aerr.Code != apperr.CodeNotFound {
		t.Errorf("get after delete: %v", aerr)
	}

	if aerr := env.Manager.Delete(ctx, "monster", "gnarl", ""); aerr == nil || aerr.Code != apperr.CodeNotFound {
		t.Errorf("second delete: %v", aerr)
	}
}

func TestFindFiltersSortsAndPaginates(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	mustCreate(t, env, "npc", map[string]any{"name": "Alia", "tags": []string{"ally"}}, "Met in the tavern.\n")
	mustCreate(t, env, "npc", map[string]any{"name": "Brom", "tags": []string{"ally", "smith"}}, "")
	mustCreate(t, env, "npc", map[string]any{"name": "Cyrus", "tags": []string{"villain"}}, "")

	res, aerr := env.Manager.Find(ctx, content.Query{Type: "npc", SortBy: "name", SortOrder: "asc"})
	if aerr != nil {
		t.Fatal(aerr)
	}
	if res.Total != 3 || len(res.Items) != 3 {
		t.Fatalf("total = %d, items = %d", res.Total, len(res.Items))
	}
	if res.Items[0].Name() != "Alia" || res.Items[2].Name() != "Cyrus" {
		t.Errorf("order: %q, %q, %q", res.Items[0].Name(), res.Items[1].Name(), res.Items[2].Name())
	}
	if res.Items[0].Body != "" {
		t.Error("find strips bodies unless asked")
	}

	res, aerr = env.Manager.Find(ctx, content.Query{Type: "npc", Tags: []string{"ally", "smith"}})
	if aerr != nil {
		t.Fatal(aerr)
	}
	if res.Total != 1 || res.Items[0].Slug != "brom" {
		t.Errorf("tag filter: %+v", res.Items)
	}

	res, aerr = env.Manager.Find(ctx, content.Query{Type: "npc", Search: "tavern", IncludeBody: true})
	if aerr != nil {
		t.Fatal(aerr)
	}
	if res.Total != 1 || res.Items[0].Slug != "alia" {
		t.Errorf("search: %+v", res.Items)
	}

	res, aerr = env.Manager.Find(ctx, content.Query{Type: "npc", SortBy: "name", SortOrder: "asc", Offset: 1, Limit: 1})
	if aerr != nil {
		t.Fatal(aerr)
	}
	if res.Total != 3 || len(res.Items) != 1 || res.Items[0].Name() != "Brom" {
		t.Errorf("page: total=%d items=%+v", res.Total, res.Items)
	}
}

func TestFindEmptyDirectory(t *testing.T) {
	env := testutil.NewEnv(t)
	res, aerr := env.Manager.Find(context.Background(), content.Query{Type: "session"})
	if aerr != nil {
		t.Fatal(aerr)
	}
	if res.Total != 0 || len(res.Items) != 0 {
		t.Errorf("res = %+v", res)
	}
}

func TestFindUnknownType(t *testing.T) {
	env := testutil.NewEnv(t)
	_, aerr := env.Manager.Find(context.Background(), content.Query{Type: "spell"})
	if aerr == nil || aerr.Code != apperr.CodeInvalidContentType {
		t.Errorf("aerr = %v", aerr)
	}
}

func TestFindCacheInvalidatedByCreate(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	mustCreate(t, env, "note", map[string]any{"name": "First"}, "")

	res, aerr := env.Manager.Find(ctx, content.Query{Type: "note"})
	if aerr != nil {
		t.Fatal(aerr)
	}
	if res.Total != 1 {
		t.Fatalf("total = %d", res.Total)
	}

	mustCreate(t, env, "note", map[string]any{"name": "Second"}, "")

	res, aerr = env.Manager.Find(ctx, content.Query{Type: "note"})
	if aerr != nil {
		t.Fatal(aerr)
	}
	if res.Total != 2 {
		t.Errorf("create must invalidate the list cache, total = %d", res.Total)
	}
}

func TestMutationEvents(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	type event struct{ kind, ct, camp, slug string }
	var events []event
	env.Manager.OnEvent(func(kind, contentType, campaignID, slug string) {
		events = append(events, event{kind, contentType, campaignID, slug})
	})

	mustCreate(t, env, "note", map[string]any{"name": "Trail"}, "")
	if _, aerr := env.Manager.Update(ctx, content.UpdateInput{Type: "note", Slug: "trail", Fields: map[string]any{"description": "x"}}); aerr != nil {
		t.Fatal(aerr)
	}
	if aerr := env.Manager.Delete(ctx, "note", "trail", ""); aerr != nil {
		t.Fatal(aerr)
	}

	want := []event{
		{"created", "note", "default", "trail"},
		{"updated", "note", "default", "trail"},
		{"deleted", "note", "default", "trail"},
	}
	if len(events) != len(want) {
		t.Fatalf("events = %+v", events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event[%d] = %+v, want %+v", i, events[i], want[i])
		}
	}
}

func TestSlugRejectsPathSegments(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	// A caller-supplied slug with ".." must not place the file in another
	// type directory.
	_, aerr := env.Manager.Create(ctx, content.CreateInput{
		Type:   "npc",
		Fields: map[string]any{"name": "Infiltrator", "slug": "../monster/infiltrator"},
	})
	if aerr == nil || aerr.Code != apperr.CodeValidation {
		t.Fatalf("create with traversal slug: %v", aerr)
	}
	if env.Store.Exists("default/characters/monster/infiltrator.md") {
		t.Error("file escaped the npc directory")
	}
	if env.Store.Exists("default/characters/npc/infiltrator.md") {
		t.Error("rejected create must not write anything")
	}

	mustCreate(t, env, "npc", map[string]any{"name": "Mole"}, "")

	// Renaming to a bad slug via update is rejected before any write.
	_, aerr = env.Manager.Update(ctx, content.UpdateInput{
		Type:   "npc",
		Slug:   "mole",
		Fields: map[string]any{"slug": "../../escape"},
	})
	if aerr == nil || aerr.Code != apperr.CodeValidation {
		t.Errorf("rename to traversal slug: %v", aerr)
	}
	if env.Store.Exists("default/escape.md") || env.Store.Exists("escape.md") {
		t.Error("rename escaped the type directory")
	}
	if !env.Store.Exists("default/characters/npc/mole.md") {
		t.Error("original file must survive a rejected rename")
	}

	for _, bad := range []string{"../mole", "mole/../mole", "MOLE", "mo le", ".mole"} {
		if _, aerr := env.Manager.Get(ctx, "npc", bad, "", true); aerr == nil || aerr.Code != apperr.CodeValidation {
			t.Errorf("get %q: %v", bad, aerr)
		}
		if _, aerr := env.Manager.Update(ctx, content.UpdateInput{Type: "npc", Slug: bad}); aerr == nil || aerr.Code != apperr.CodeValidation {
			t.Errorf("update %q: %v", bad, aerr)
		}
		if aerr := env.Manager.Delete(ctx, "npc", bad, ""); aerr == nil || aerr.Code != apperr.CodeValidation {
			t.Errorf("delete %q: %v", bad, aerr)
		}
	}
}

func TestUpdateKeepsHandAddedFrontmatterKeys(t *testing.T) {
	env := testutil.NewEnv(t)

	raw := []byte("---\nslug: \"rumor-mill\"\nname: \"Rumor Mill\"\nfaction: \"harpers\"\n---\n\nHeard in the tavern.\n")
	if err := env.Store.Write("default/notes/rumor-mill.md", raw); err != nil {
		t.Fatal(err)
	}

	got, aerr := env.Manager.Update(context.Background(), content.UpdateInput{
		Type:   "note",
		Slug:   "rumor-mill",
		Fields: map[string]any{"description": "tavern gossip"},
	})
	if aerr != nil {
		t.Fatal(aerr)
	}
	if got.Fields["faction"] != "harpers" {
		t.Errorf("faction = %v", got.Fields["faction"])
	}

	data, err := env.Store.Read("default/notes/rumor-mill.md")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "faction: \"harpers\"") {
		t.Errorf("hand-added key lost on rewrite:\n%s", data)
	}
}

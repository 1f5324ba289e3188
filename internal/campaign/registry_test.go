package campaign

import (
	"testing"

	"github.com/ravenholt/lorekeep/internal/storage"
)

func testStore(t *testing.T) storage.Provider {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func TestLoadCreatesDefault(t *testing.T) {
	store := testStore(t)
	r, err := Load(store)
	if err != nil {
		t.Fatal(err)
	}

	list := r.List()
	if len(list) != 1 {
		t.Fatalf("len = %d, want 1", len(list))
	}
	c := list[0]
	if c.ID != "default" || c.ContentPath != "default" || !c.Active {
		t.Errorf("default campaign = %+v", c)
	}
	if !store.Exists(FileName) {
		t.Error("registry document should be persisted")
	}
}

func TestLoadReadsExisting(t *testing.T) {
	store := testStore(t)
	if _, err := Load(store); err != nil {
		t.Fatal(err)
	}

	// Second load sees the persisted document, not a fresh default.
	r, err := Load(store)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.Get("default"); !ok {
		t.Error("default campaign missing after reload")
	}
}

func TestResolve(t *testing.T) {
	store := testStore(t)
	r, _ := Load(store)
	if _, err := r.Create(Campaign{Name: "Curse of Strahd"}); err != nil {
		t.Fatal(err)
	}

	c, err := r.Resolve("curse-of-strahd")
	if err != nil {
		t.Fatal(err)
	}
	if c.ContentPath != "curse-of-strahd" {
		t.Errorf("content path = %q", c.ContentPath)
	}

	// Empty id falls back to the first active campaign.
	c, err = r.Resolve("")
	if err != nil {
		t.Fatal(err)
	}
	if c.ID != "default" {
		t.Errorf("resolved = %q, want default", c.ID)
	}

	if _, err := r.Resolve("nope"); err == nil {
		t.Error("unknown id should fail")
	}
}

func TestCreateDerivesIDAndRejectsDuplicates(t *testing.T) {
	store := testStore(t)
	r, _ := Load(store)

	c, err := r.Create(Campaign{Name: "Tomb of Annihilation"})
	if err != nil {
		t.Fatal(err)
	}
	if c.ID != "tomb-of-annihilation" {
		t.Errorf("id = %q", c.ID)
	}

	if _, err := r.Create(Campaign{ID: "tomb-of-annihilation", Name: "Again"}); err == nil {
		t.Error("duplicate id should fail")
	}
	if _, err := r.Create(Campaign{}); err == nil {
		t.Error("empty id and name should fail")
	}
}

func TestDeleteKeepsOneActive(t *testing.T) {
	store := testStore(t)
	r, _ := Load(store)

	if err := r.Delete("default"); err == nil {
		t.Fatal("deleting the only active campaign should fail")
	}

	if _, err := r.Create(Campaign{Name: "Side Quest", Active: true}); err != nil {
		t.Fatal(err)
	}
	if err := r.Delete("default"); err != nil {
		t.Fatalf("delete with another active campaign remaining: %v", err)
	}
	if _, ok := r.Get("default"); ok {
		t.Error("default should be gone")
	}

	if err := r.Delete("missing"); err == nil {
		t.Error("unknown id should fail")
	}
}

func TestSetActiveKeepsOneActive(t *testing.T) {
	store := testStore(t)
	r, _ := Load(store)

	if err := r.SetActive("default", false); err == nil {
		t.Fatal("deactivating the last active campaign should fail")
	}

	if _, err := r.Create(Campaign{Name: "Other", Active: true}); err != nil {
		t.Fatal(err)
	}
	if err := r.SetActive("default", false); err != nil {
		t.Fatal(err)
	}
	c, _ := r.Get("default")
	if c.Active {
		t.Error("default should be inactive")
	}
	active := r.Active()
	if len(active) != 1 || active[0].ID != "other" {
		t.Errorf("active = %+v", active)
	}
}

package forms_test

import (
	"testing"

	"github.com/goliatone/go-stagecms/internal/forms"
	"github.com/goliatone/go-stagecms/internal/schema"
)

func fingerprintSchema() *schema.Schema {
	return &schema.Schema{
		ID: "builds",
		Components: []*schema.Field{
			{ID: "intro", Type: schema.TypeText},
			{ID: "video", Type: schema.TypeIframe, Transform: "youtube", ExtraProperties: map[string]string{"kind": "video"}},
			{ID: "circuit", Type: schema.TypeImage, Binding: "src", ExtraProperties: map[string]string{"kind": "circuit", "layout": "wide"}},
		},
	}
}

func TestHydrateKeepsFieldsMatchingFingerprint(t *testing.T) {
	store := forms.Hydrate(fingerprintSchema(), []forms.InputField{
		{"intro": "hello"},
		{"kind": "video", "video": "https://www.youtube.com/embed/x"},
		{"kind": "circuit", "layout": "wide", "src": "a.png"},
	})
	for _, id := range []string{"intro", "video", "circuit"} {
		if !store.Has(id) {
			t.Fatalf("expected %s hydrated", id)
		}
	}
	v, _ := store.Get("circuit")
	if v["src"] != "a.png" {
		t.Fatalf("unexpected circuit value %v", v)
	}
}

func TestHydrateDropsMismatchedFingerprint(t *testing.T) {
	store := forms.Hydrate(fingerprintSchema(), []forms.InputField{
		{"intro": "hello"},
		{"kind": "circuit", "src": "moved.png"},
		{"kind": "circuit", "src": "b.png"},
	})
	if !store.Has("intro") {
		t.Fatalf("expected component without extra properties to hydrate")
	}
	if store.Has("video") {
		t.Fatalf("expected video dropped when kind differs")
	}
	if store.Has("circuit") {
		t.Fatalf("expected circuit dropped when a fixed key is missing")
	}
}

func TestHydrateIgnoresSurplusFields(t *testing.T) {
	s := &schema.Schema{Components: []*schema.Field{{ID: "only", Type: schema.TypeText}}}
	store := forms.Hydrate(s, []forms.InputField{{"only": "x"}, {"extra": "y"}})
	if store.Len() != 1 {
		t.Fatalf("expected one hydrated component, got %d", store.Len())
	}
}

func TestStoreReturnsCopies(t *testing.T) {
	store := forms.NewStore()
	store.Set("a", forms.InputField{"list": []any{"x"}})
	v, _ := store.Get("a")
	v["list"].([]any)[0] = "mutated"
	again, _ := store.Get("a")
	if again["list"].([]any)[0] != "x" {
		t.Fatalf("expected store isolation, got %v", again)
	}
}

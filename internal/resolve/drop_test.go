package resolve_test

import (
	"errors"
	"testing"

	"github.com/nikbrunner/anchors/internal/resolve"
)

func TestParseDrop(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        resolve.DropData
	}{
		{
			name:        "json document drop",
			contentType: "application/json",
			body:        `{"type":"Actor","uuid":"Actor.abc"}`,
			want:        resolve.DropData{Type: "Actor", UUID: "Actor.abc"},
		},
		{
			name:        "json compendium drop with charset",
			contentType: "application/json; charset=utf-8",
			body:        `{"pack":"bestiary","id":"wolf01","name":"Wolf"}`,
			want:        resolve.DropData{Pack: "bestiary", ID: "wolf01", Name: "Wolf"},
		},
		{
			name: "sniffed json",
			body: `  {"type":"Item","id":"xyz"}  `,
			want: resolve.DropData{Type: "Item", ID: "xyz"},
		},
		{
			name: "json string literal",
			body: `"see @UUID[Item.xyz]{Sword}"`,
			want: resolve.DropData{Text: "see @UUID[Item.xyz]{Sword}"},
		},
		{
			name: "brace text that is not json",
			body: `{Sword} @UUID[Item.xyz]`,
			want: resolve.DropData{Text: "{Sword} @UUID[Item.xyz]"},
		},
		{
			name:        "json carried as text/plain",
			contentType: "text/plain",
			body:        `{"type":"Actor","uuid":"Actor.abc","name":"Wolf"}`,
			want:        resolve.DropData{Type: "Actor", UUID: "Actor.abc", Name: "Wolf"},
		},
		{
			name:        "json carried as text/plain with charset",
			contentType: "text/plain;charset=UTF-8",
			body:        `{"pack":"bestiary","id":"wolf01"}`,
			want:        resolve.DropData{Pack: "bestiary", ID: "wolf01"},
		},
		{
			name:        "plain text that looks like json",
			contentType: "text/plain",
			body:        `{Sword} @UUID[Item.xyz]`,
			want:        resolve.DropData{Text: "{Sword} @UUID[Item.xyz]"},
		},
		{
			name:        "plain text",
			contentType: "text/plain",
			body:        "see @UUID[Item.xyz]{Sword}",
			want:        resolve.DropData{Text: "see @UUID[Item.xyz]{Sword}"},
		},
		{
			name:        "markup in name is stripped",
			contentType: "application/json",
			body:        `{"uuid":"Actor.abc","name":"<b>Grey</b> Wolf &amp; Pup"}`,
			want:        resolve.DropData{UUID: "Actor.abc", Name: "Grey Wolf & Pup"},
		},
		{
			name:        "html content link",
			contentType: "text/html",
			body:        `<p>Meet <a class="content-link" data-uuid="Actor.abc" data-type="Actor" data-id="abc">Grey Wolf</a></p>`,
			want:        resolve.DropData{UUID: "Actor.abc", Type: "Actor", ID: "abc", Name: "Grey Wolf", Text: "Meet Grey Wolf"},
		},
		{
			name: "sniffed html with marker only",
			body: `<p>see @UUID[Item.xyz]{Sword}</p>`,
			want: resolve.DropData{Text: "see @UUID[Item.xyz]{Sword}"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolve.ParseDrop(tt.contentType, []byte(tt.body))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseDrop_Unrecognized(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"empty", "", ""},
		{"whitespace", "text/plain", "   "},
		{"broken json", "application/json", `{"uuid":`},
		{"json array", "application/json", `["Actor.abc"]`},
		{"empty html", "text/html", `<div></div>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolve.ParseDrop(tt.contentType, []byte(tt.body))
			if !errors.Is(err, resolve.ErrUnrecognizedDrop) {
				t.Errorf("expected ErrUnrecognizedDrop, got %v", err)
			}
		})
	}
}

func TestFindMarkers(t *testing.T) {
	text := "The @UUID[Actor.abc]{Wolf} hunts near @UUID[Scene.s1] and @UUID[Item.xyz]{Sword}."

	markers := resolve.FindMarkers(text)
	want := []resolve.Marker{
		{Identifier: "Actor.abc", Label: "Wolf", Raw: "@UUID[Actor.abc]{Wolf}"},
		{Identifier: "Scene.s1", Raw: "@UUID[Scene.s1]"},
		{Identifier: "Item.xyz", Label: "Sword", Raw: "@UUID[Item.xyz]{Sword}"},
	}

	if len(markers) != len(want) {
		t.Fatalf("expected %d markers, got %d", len(want), len(markers))
	}
	for i := range want {
		if markers[i] != want[i] {
			t.Errorf("marker %d = %+v, want %+v", i, markers[i], want[i])
		}
	}

	if _, ok := resolve.FirstMarker("nothing here"); ok {
		t.Error("expected no marker")
	}
}

func TestEnricher(t *testing.T) {
	tests := []struct {
		identifier string
		want       string
	}{
		{"Actor.abc", "@UUID[Actor.abc]{abc}"},
		{"Compendium.bestiary.wolf01", "@UUID[Compendium.bestiary.wolf01]{wolf01}"},
		{"loneid", "@UUID[loneid]{loneid}"},
	}

	for _, tt := range tests {
		if got := resolve.Enricher(tt.identifier); got != tt.want {
			t.Errorf("Enricher(%q) = %q, want %q", tt.identifier, got, tt.want)
		}
	}
}

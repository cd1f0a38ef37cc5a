// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "testing"

func TestPostIsPublished(t *testing.T) {
	tests := []struct {
		status PostStatus
		want   bool
	}{
		{PostStatusPublished, true},
		{PostStatusDraft, false},
		{PostStatus(""), false},
		{PostStatus("PUBLISHED"), false},
	}
	for _, tt := range tests {
		p := &Post{Status: tt.status}
		if got := p.IsPublished(); got != tt.want {
			t.Errorf("Post{Status: %q}.IsPublished() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestPostHasCover(t *testing.T) {
	empty := ""
	url := "cover.webp"
	if (&Post{}).HasCover() {
		t.Error("nil cover reported as present")
	}
	if (&Post{CoverImageURL: &empty}).HasCover() {
		t.Error("empty cover reported as present")
	}
	if !(&Post{CoverImageURL: &url}).HasCover() {
		t.Error("cover not detected")
	}
}

func TestParseLocale(t *testing.T) {
	for _, s := range []string{"pt", "en", "es"} {
		if l, ok := ParseLocale(s); !ok || string(l) != s {
			t.Errorf("ParseLocale(%q) = %q, %v", s, l, ok)
		}
	}
	for _, s := range []string{"", "fr", "PT", "pt-BR"} {
		if _, ok := ParseLocale(s); ok {
			t.Errorf("ParseLocale(%q) accepted unsupported locale", s)
		}
	}
}

func TestParseStatus(t *testing.T) {
	if ParseStatus("published") != PostStatusPublished {
		t.Error("published not parsed")
	}
	for _, s := range []string{"", "draft", "archived"} {
		if ParseStatus(s) != PostStatusDraft {
			t.Errorf("ParseStatus(%q) should be draft", s)
		}
	}
}

func TestOptional(t *testing.T) {
	var unset Optional[string]
	if unset.IsSet() || unset.Ptr() != nil {
		t.Error("zero Optional should be unset")
	}

	some := Some("x")
	if !some.IsSet() || some.Null || some.Arg() != "x" || *some.Ptr() != "x" {
		t.Errorf("Some: %+v", some)
	}

	null := Null[string]()
	if !null.IsSet() || !null.Null || null.Arg() != nil || null.Ptr() != nil {
		t.Errorf("Null: %+v", null)
	}

	if FromPtr[string](nil) != null {
		t.Error("FromPtr(nil) should equal Null")
	}
	v := "y"
	if got := FromPtr(&v); got.Value != "y" || got.Null {
		t.Errorf("FromPtr(&y) = %+v", got)
	}
}

func TestPostPatchEmpty(t *testing.T) {
	if !(PostPatch{}).Empty() {
		t.Error("zero patch should be empty")
	}
	if (PostPatch{CoverImageURL: Null[string]()}).Empty() {
		t.Error("patch clearing the cover is not empty")
	}
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package storage

import (
	"testing"
	"time"
)

func testClient(base string) *Client {
	return &Client{
		publicBucket: "public-post-images",
		rawBucket:    "post-images-raw",
		endpoint:     "https://s3.example.com",
		publicBase:   base,
		now:          time.Now,
	}
}

func TestUniqueKey(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	tests := []struct {
		name string
		want string
	}{
		{"Foto da Capa.JPG", "foto-da-capa-1700000000000.jpg"},
		{"Recomeço_final v2.png", "recomeco-final-v2-1700000000000.png"},
		{"C:\\Users\\me\\cover.webp", "cover-1700000000000.webp"},
		{"../../etc/passwd", "passwd-1700000000000"},
		{"!!!.gif", "image-1700000000000.gif"},
		{".jpg", "image-1700000000000.jpg"},
		{"", "image-1700000000000"},
		{"archive.tar.GZ", "archivetar-1700000000000.gz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UniqueKey(tt.name, at); got != tt.want {
				t.Errorf("UniqueKey(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestUniqueKey_DiffersOverTime(t *testing.T) {
	a := UniqueKey("cover.jpg", time.UnixMilli(1))
	b := UniqueKey("cover.jpg", time.UnixMilli(2))
	if a == b {
		t.Errorf("keys for different instants collide: %q", a)
	}
}

func TestResolvePublicURL(t *testing.T) {
	c := testClient("https://xyz.supabase.co")
	tests := []struct {
		name   string
		stored string
		want   string
		wantOK bool
	}{
		{"absolute url unchanged", "https://cdn.other.com/a.jpg", "https://cdn.other.com/a.jpg", true},
		{"bare key uses public bucket", "cover.webp", "https://xyz.supabase.co/storage/v1/object/public/public-post-images/cover.webp", true},
		{"bucket path kept", "post-images-raw/raw.jpg", "https://xyz.supabase.co/storage/v1/object/public/post-images-raw/raw.jpg", true},
		{"leading slash trimmed", "/cover.webp", "https://xyz.supabase.co/storage/v1/object/public/public-post-images/cover.webp", true},
		{"empty", "", "", false},
		{"whitespace", "   ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.ResolvePublicURL(tt.stored)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ResolvePublicURL(%q) = %q, %v; want %q, %v", tt.stored, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestResolvePublicURL_NoBase(t *testing.T) {
	c := testClient("")
	if _, ok := c.ResolvePublicURL("cover.webp"); ok {
		t.Error("relative value resolved without a configured base")
	}
	if got, ok := c.ResolvePublicURL("https://a.b/c.jpg"); !ok || got != "https://a.b/c.jpg" {
		t.Errorf("absolute url should resolve without base, got %q %v", got, ok)
	}
	if got := c.PublicURL("k.jpg"); got != "https://s3.example.com/public-post-images/k.jpg" {
		t.Errorf("PublicURL fallback = %q", got)
	}
}

func TestExtractStorageKey(t *testing.T) {
	c := testClient("https://xyz.supabase.co")
	tests := []struct {
		url    string
		want   string
		wantOK bool
	}{
		{"https://xyz.supabase.co/storage/v1/object/public/public-post-images/cover-1.jpg", "cover-1.jpg", true},
		{"https://xyz.supabase.co/storage/v1/object/public/public-post-images/f%C3%A9%20e.jpg", "fé e.jpg", true},
		{"https://s3.example.com/public-post-images/cover.webp", "cover.webp", true},
		{"https://cdn.other.com/images/cover.jpg", "", false},
		{"https://xyz.supabase.co/storage/v1/object/public/post-images-raw/raw.jpg", "", false},
		{"https://xyz.supabase.co/storage/v1/object/public/public-post-images/", "", false},
		{"://bad", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, ok := c.ExtractStorageKey(tt.url)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ExtractStorageKey(%q) = %q, %v; want %q, %v", tt.url, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

// TestExtractStorageKey_RoundTrip checks that composing then extracting
// yields the original key.
func TestExtractStorageKey_RoundTrip(t *testing.T) {
	c := testClient("https://xyz.supabase.co")
	for _, key := range []string{"a.jpg", "foto-da-capa-1700000000000.png"} {
		got, ok := c.ExtractStorageKey(c.PublicURL(key))
		if !ok || got != key {
			t.Errorf("round trip %q -> %q, %v", key, got, ok)
		}
	}
}

func TestOwnedKey(t *testing.T) {
	c := testClient("https://xyz.supabase.co")
	tests := []struct {
		stored string
		want   string
		wantOK bool
	}{
		{"cover.webp", "cover.webp", true},
		{"public-post-images/cover.webp", "cover.webp", true},
		{"post-images-raw/cover.jpg", "", false},
		{"https://xyz.supabase.co/storage/v1/object/public/public-post-images/x.jpg", "x.jpg", true},
		{"https://elsewhere.com/x.jpg", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := c.OwnedKey(tt.stored)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("OwnedKey(%q) = %q, %v; want %q, %v", tt.stored, got, ok, tt.want, tt.wantOK)
		}
	}
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeGenre(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Rock", "rock"},
		{"rock alternativo", "rock"},
		{"Samba", "mpb"},
		{"música popular brasileira", "mpb"},
		{"country", "sertanejo"},
		{"Hip Hop", "rap"},
		{"techno", "eletrônica"},
		{"eletronica", "eletrônica"},
		{"forró", GenreOther},
		{"", ""},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, NormalizeGenre(c.in), "input %q", c.in)
	}
}

func TestNormalizeSocialLink(t *testing.T) {
	link, ok := NormalizeSocialLink("Instagram", "@riosol")
	assert.True(t, ok)
	assert.Equal(t, SocialLink{Platform: "instagram", URL: "https://instagram.com/riosol"}, link)

	link, ok = NormalizeSocialLink("instagram", "https://www.instagram.com/riosol")
	assert.True(t, ok)
	assert.Equal(t, "https://www.instagram.com/riosol", link.URL)

	link, ok = NormalizeSocialLink("youtube", "riosol")
	assert.True(t, ok)
	assert.Equal(t, "https://youtube.com/@riosol", link.URL)

	_, ok = NormalizeSocialLink("spotify", "riosol")
	assert.False(t, ok, "spotify accepts only full profile URLs")

	link, ok = NormalizeSocialLink("spotify", "https://open.spotify.com/artist/abc123")
	assert.True(t, ok)
	assert.Equal(t, "spotify", link.Platform)

	_, ok = NormalizeSocialLink("myspace", "https://myspace.com/riosol")
	assert.False(t, ok, "unknown platforms are dropped")

	_, ok = NormalizeSocialLink("instagram", "https://evil.example/riosol")
	assert.False(t, ok, "host must match the platform")
}

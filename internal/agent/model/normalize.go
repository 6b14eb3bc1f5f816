package model

import (
	"net/url"
	"strings"
)

// GenreOther is the catch-all genre for text that names no known style.
const GenreOther = "outro"

// genreVariants maps each canonical genre to the spellings that fold into it.
// Order matters: earlier entries win when a message mentions several styles.
var genreVariants = []struct {
	canonical string
	variants  []string
}{
	{"rock", []string{"rock", "hard rock", "soft rock", "rock nacional", "rock alternativo"}},
	{"pop", []string{"pop", "pop nacional", "pop rock", "música pop", "musica pop"}},
	{"mpb", []string{"mpb", "musica popular brasileira", "música popular brasileira", "samba"}},
	{"sertanejo", []string{"sertanejo", "sertanejo universitário", "sertanejo universitario", "country", "música sertaneja", "musica sertaneja"}},
	{"funk", []string{"funk", "funk carioca", "funk nacional", "funky"}},
	{"rap", []string{"rap", "hip hop", "hip-hop", "música rap", "musica rap"}},
	{"eletrônica", []string{"eletrônica", "eletronica", "electronic", "house", "techno", "edm"}},
	{"jazz", []string{"jazz", "música jazz", "musica jazz", "smooth jazz"}},
	{"blues", []string{"blues", "rhythm and blues", "r&b"}},
	{"reggae", []string{"reggae", "música reggae", "musica reggae", "ragga"}},
}

// NormalizeGenre folds free text into a canonical genre. Empty input stays
// empty; text naming no known style becomes GenreOther.
func NormalizeGenre(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	lower := strings.ToLower(text)
	for _, g := range genreVariants {
		for _, v := range g.variants {
			if strings.Contains(lower, v) {
				return g.canonical
			}
		}
	}
	return GenreOther
}

// Platforms accepted on a registration.
const (
	PlatformInstagram = "instagram"
	PlatformYouTube   = "youtube"
	PlatformSpotify   = "spotify"
)

// NormalizeSocialLink turns a platform/value pair into a canonical link.
// Instagram and YouTube accept bare handles; Spotify only full profile URLs.
// Returns false when the value cannot be made into a usable link.
func NormalizeSocialLink(platform, value string) (SocialLink, bool) {
	platform = strings.ToLower(strings.TrimSpace(platform))
	value = strings.TrimSpace(value)
	if value == "" {
		return SocialLink{}, false
	}

	switch platform {
	case PlatformInstagram:
		if !strings.HasPrefix(value, "http") {
			handle := strings.TrimPrefix(value, "@")
			if handle == "" {
				return SocialLink{}, false
			}
			return SocialLink{Platform: platform, URL: "https://instagram.com/" + handle}, true
		}
		return validatedLink(platform, value, "instagram.com")

	case PlatformYouTube:
		if !strings.HasPrefix(value, "http") {
			handle := strings.TrimPrefix(value, "@")
			if handle == "" {
				return SocialLink{}, false
			}
			return SocialLink{Platform: platform, URL: "https://youtube.com/@" + handle}, true
		}
		return validatedLink(platform, value, "youtube.com", "youtu.be")

	case PlatformSpotify:
		if !strings.HasPrefix(value, "http") {
			return SocialLink{}, false
		}
		return validatedLink(platform, value, "spotify.com")
	}

	return SocialLink{}, false
}

func validatedLink(platform, raw string, hosts ...string) (SocialLink, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return SocialLink{}, false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	for _, h := range hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return SocialLink{Platform: platform, URL: raw}, true
		}
	}
	return SocialLink{}, false
}

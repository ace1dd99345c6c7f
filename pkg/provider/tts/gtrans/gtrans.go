// Package gtrans provides a TTS provider backed by the free Google Translate
// speech endpoint — the same service the gTTS tooling uses. No API key is
// required; the endpoint returns MP3 audio for short text fragments.
//
// The endpoint caps each request at roughly 100 characters, so longer text is
// split on sentence and whitespace boundaries and the resulting MP3 streams
// are concatenated. MPEG audio frames are self-delimiting, which makes plain
// byte concatenation a valid MP3 stream.
package gtrans

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/voxkit/voicepad/pkg/audio"
	"github.com/voxkit/voicepad/pkg/provider/tts"
)

const (
	defaultBaseURL = "https://translate.google.com"
	ttsPath        = "/translate_tts"

	// maxFragmentLen is the per-request character budget. The public endpoint
	// rejects requests much beyond this with HTTP 400.
	maxFragmentLen = 100

	defaultTimeout = 20 * time.Second
)

// Compile-time interface assertion.
var _ tts.Provider = (*Provider)(nil)

// languages lists the language variants the endpoint accepts. The original
// demo exposed en / en-uk / en-us; the endpoint itself understands plain
// BCP-47 primary tags plus a couple of regional aliases.
var languages = []tts.Voice{
	{ID: "en", Name: "English", Provider: "gtrans", Language: "en"},
	{ID: "en-uk", Name: "English (UK)", Provider: "gtrans", Language: "en-GB"},
	{ID: "en-us", Name: "English (US)", Provider: "gtrans", Language: "en-US"},
	{ID: "de", Name: "German", Provider: "gtrans", Language: "de"},
	{ID: "fr", Name: "French", Provider: "gtrans", Language: "fr"},
	{ID: "es", Name: "Spanish", Provider: "gtrans", Language: "es"},
}

// Option is a functional option for configuring the Provider.
type Option func(*Provider)

// WithBaseURL overrides the endpoint base URL. Used in tests to point the
// provider at a mock server.
func WithBaseURL(base string) Option {
	return func(p *Provider) {
		p.baseURL = strings.TrimRight(base, "/")
	}
}

// WithTimeout sets the per-request HTTP timeout. Defaults to 20 s.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.httpClient.Timeout = d
	}
}

// WithSlowSpeech makes the endpoint speak at reduced speed.
func WithSlowSpeech() Option {
	return func(p *Provider) {
		p.slow = true
	}
}

// Provider implements tts.Provider against the Google Translate speech
// endpoint. It is safe for concurrent use.
type Provider struct {
	baseURL    string
	httpClient *http.Client
	slow       bool
}

// New creates a new Provider. The zero configuration targets the public
// endpoint with a 20 s timeout.
func New(opts ...Option) *Provider {
	p := &Provider{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Synthesize fetches MP3 audio for text in the language selected by voice.ID.
// Text longer than the endpoint's per-request budget is fragmented and the
// MP3 responses concatenated in order.
func (p *Provider) Synthesize(ctx context.Context, text string, voice tts.Voice) (audio.Artifact, error) {
	if strings.TrimSpace(text) == "" {
		return audio.Artifact{}, errors.New("gtrans: text must not be blank")
	}
	lang := normalizeLang(voice.ID)

	var out []byte
	for _, fragment := range splitFragments(text, maxFragmentLen) {
		mp3, err := p.fetchFragment(ctx, fragment, lang)
		if err != nil {
			return audio.Artifact{}, err
		}
		out = append(out, mp3...)
	}

	if len(out) == 0 {
		return audio.Artifact{}, tts.ErrNoAudioProduced
	}
	return audio.Artifact{Data: out, MIME: "audio/mpeg"}, nil
}

// ListVoices returns the fixed language catalogue; the endpoint has no
// server-side voice listing.
func (p *Provider) ListVoices(_ context.Context) ([]tts.Voice, error) {
	out := make([]tts.Voice, len(languages))
	copy(out, languages)
	return out, nil
}

// fetchFragment performs one GET against the speech endpoint and returns the
// raw MP3 bytes.
func (p *Provider) fetchFragment(ctx context.Context, fragment, lang string) ([]byte, error) {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", lang)
	q.Set("q", fragment)
	if p.slow {
		q.Set("ttsspeed", "0.3")
	}

	reqURL := p.baseURL + ttsPath + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("gtrans: create request: %w", err)
	}
	// The endpoint refuses clients without a browser-like user agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gtrans: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gtrans: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gtrans: read response: %w", err)
	}
	return body, nil
}

// normalizeLang maps the demo's legacy language IDs to tags the endpoint
// accepts. Unknown IDs pass through unchanged.
func normalizeLang(id string) string {
	switch id {
	case "", "en-uk", "en-us":
		return "en"
	default:
		return id
	}
}

// splitFragments splits text into fragments of at most limit runes, breaking
// preferentially after sentence punctuation, then at whitespace, and only as
// a last resort mid-word.
func splitFragments(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var fragments []string
	runes := []rune(text)
	for len(runes) > 0 {
		if len(runes) <= limit {
			fragments = append(fragments, strings.TrimSpace(string(runes)))
			break
		}

		cut := -1
		// Prefer the last sentence boundary within the budget.
		for i := limit; i > 0; i-- {
			switch runes[i-1] {
			case '.', '!', '?', ';', ':', ',':
				cut = i
			}
			if cut > 0 {
				break
			}
		}
		// Fall back to the last whitespace.
		if cut <= 0 {
			for i := limit; i > 0; i-- {
				if runes[i-1] == ' ' || runes[i-1] == '\n' || runes[i-1] == '\t' {
					cut = i
					break
				}
			}
		}
		if cut <= 0 {
			cut = limit
		}

		fragment := strings.TrimSpace(string(runes[:cut]))
		if fragment != "" {
			fragments = append(fragments, fragment)
		}
		runes = runes[cut:]
		for len(runes) > 0 && (runes[0] == ' ' || runes[0] == '\n' || runes[0] == '\t') {
			runes = runes[1:]
		}
	}
	return fragments
}
